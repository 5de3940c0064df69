package sync

import (
	"context"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/digest"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	"github.com/MurtazaD1410/developer-dashboard/internal/normalize"
)

// SyncIssues reconciles one page of a project's issues
func (s *Syncer) SyncIssues(ctx context.Context, projectID string, page, perPage int) (*Result, error) {
	t, err := s.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("syncing issues", "project", projectID, "repository", t.ref, "page", page)

	raw, totalPages, err := t.source.ListIssues(ctx, t.ref, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for %s: %w", t.ref, err)
	}
	if err := s.saveState(ctx, projectID, models.KindIssues, totalPages); err != nil {
		return nil, err
	}

	res := &Result{Kind: models.KindIssues, Fetched: len(raw), TotalPages: totalPages}

	existing, err := s.store.Hashes(ctx, projectID, models.KindIssues)
	if err != nil {
		return nil, fmt.Errorf("failed to load issue hashes: %w", err)
	}

	for _, r := range raw {
		issue := normalize.Issue(r)
		hash, err := digest.Compute(issue)
		if err != nil {
			s.logger.Warn("skipping issue", "project", projectID, "number", issue.Number, "error", err)
			res.Failed++
			continue
		}

		if digest.Classify(hash, existing) == digest.Unchanged {
			res.Unchanged++
			continue
		}

		if err := s.upsertIssue(ctx, projectID, issue, hash); err != nil {
			s.logger.Warn("skipping issue", "project", projectID, "number", issue.Number, "error", err)
			res.Failed++
			continue
		}
		res.Upserted++
	}

	s.logger.Info("synced issues", "project", projectID, "page", page,
		"fetched", res.Fetched, "upserted", res.Upserted, "unchanged", res.Unchanged, "failed", res.Failed)
	return res, nil
}

// upsertIssue writes referenced users and labels, then the issue, then its
// links. The hash is set last so that a partial write is retried.
func (s *Syncer) upsertIssue(ctx context.Context, projectID string, issue *models.Issue, hash string) error {
	creatorID, err := s.upsertUser(ctx, issue.Creator)
	if err != nil {
		return err
	}
	closedByID, err := s.upsertUser(ctx, issue.ClosedBy)
	if err != nil {
		return err
	}
	assigneeIDs, err := s.upsertMembers(ctx, issue.Assignees)
	if err != nil {
		return err
	}
	labelIDs, err := s.upsertLabels(ctx, issue.Labels)
	if err != nil {
		return err
	}

	id, err := s.store.UpsertIssue(ctx, &models.IssueRecord{
		ProjectID:  projectID,
		Issue:      issue,
		CreatorID:  creatorID,
		ClosedByID: closedByID,
	})
	if err != nil {
		return err
	}

	if err := s.link(ctx, models.RelIssueAssignee, id, assigneeIDs); err != nil {
		return err
	}
	if err := s.link(ctx, models.RelIssueLabel, id, labelIDs); err != nil {
		return err
	}
	return s.store.SetHash(ctx, models.KindIssues, id, hash)
}
