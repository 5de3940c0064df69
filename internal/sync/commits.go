package sync

import (
	"context"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	"github.com/MurtazaD1410/developer-dashboard/internal/normalize"
	"github.com/MurtazaD1410/developer-dashboard/internal/summarize"
)

// SyncCommits stores the commits of one page that are not known yet.
// Commits are immutable, so known SHAs are skipped without hashing. New
// commits are summarized in parallel; a commit whose diff or summary fails
// is left out and picked up again by the next pass.
func (s *Syncer) SyncCommits(ctx context.Context, projectID string, page, perPage int) (*Result, error) {
	t, err := s.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("syncing commits", "project", projectID, "repository", t.ref, "page", page)

	raw, totalPages, err := t.source.ListCommits(ctx, t.ref, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits for %s: %w", t.ref, err)
	}
	if err := s.saveState(ctx, projectID, models.KindCommits, totalPages); err != nil {
		return nil, err
	}

	res := &Result{Kind: models.KindCommits, Fetched: len(raw), TotalPages: totalPages}

	known, err := s.store.CommitSHAs(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit SHAs: %w", err)
	}

	var pending []*models.Commit
	for _, r := range raw {
		c := normalize.Commit(r)
		if known.Has(c.SHA) {
			res.Unchanged++
			continue
		}
		pending = append(pending, c)
	}

	var errs []error
	if summarize.Enabled(s.summarizer) {
		errs = s.fanOut(ctx, "commit summaries", len(pending), func(ctx context.Context, i int) error {
			diff, err := t.source.GetCommitDiff(ctx, t.ref, pending[i].SHA)
			if err != nil {
				return err
			}
			summary, err := s.summarizer.Summarize(ctx, diff)
			if err != nil {
				return err
			}
			pending[i].Summary = summary
			return nil
		})
	} else {
		errs = make([]error, len(pending))
	}

	for i, c := range pending {
		if errs[i] != nil {
			s.logger.Warn("skipping commit", "project", projectID, "sha", c.SHA, "error", errs[i])
			res.Failed++
			continue
		}

		inserted, err := s.store.InsertCommit(ctx, projectID, c)
		if err != nil {
			s.logger.Warn("skipping commit", "project", projectID, "sha", c.SHA, "error", err)
			res.Failed++
			continue
		}
		if inserted {
			res.Upserted++
		} else {
			res.Unchanged++
		}
	}

	s.logger.Info("synced commits", "project", projectID, "page", page,
		"fetched", res.Fetched, "stored", res.Upserted, "unchanged", res.Unchanged, "failed", res.Failed)
	return res, nil
}
