package sync

import (
	"context"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/digest"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	"github.com/MurtazaD1410/developer-dashboard/internal/normalize"
)

// SyncRepository refreshes the repository snapshot of a project
func (s *Syncer) SyncRepository(ctx context.Context, projectID string) (*Result, error) {
	t, err := s.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("syncing repository", "project", projectID, "repository", t.ref)

	raw, err := t.source.GetRepository(ctx, t.ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", t.ref, err)
	}
	if err := s.saveState(ctx, projectID, models.KindRepository, 1); err != nil {
		return nil, err
	}

	res := &Result{Kind: models.KindRepository, Fetched: 1, TotalPages: 1}

	repo := normalize.Repository(raw)
	hash, err := digest.Compute(repo)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Hashes(ctx, projectID, models.KindRepository)
	if err != nil {
		return nil, fmt.Errorf("failed to load repository hashes: %w", err)
	}

	if digest.Classify(hash, existing) == digest.Unchanged {
		res.Unchanged++
		s.logger.Info("repository unchanged", "project", projectID, "repository", t.ref)
		return res, nil
	}

	ownerID, err := s.upsertUser(ctx, repo.Owner)
	if err != nil {
		s.logger.Warn("skipping repository", "project", projectID, "repository", t.ref, "error", err)
		res.Failed++
		return res, nil
	}

	_, err = s.store.UpsertRepository(ctx, &models.RepositoryRecord{
		ProjectID:  projectID,
		Repository: repo,
		OwnerID:    ownerID,
		Hash:       hash,
	})
	if err != nil {
		s.logger.Warn("skipping repository", "project", projectID, "repository", t.ref, "error", err)
		res.Failed++
		return res, nil
	}
	res.Upserted++

	s.logger.Info("synced repository", "project", projectID, "repository", t.ref)
	return res, nil
}
