package sync

import (
	"context"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/api"
	"github.com/MurtazaD1410/developer-dashboard/internal/digest"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	"github.com/MurtazaD1410/developer-dashboard/internal/normalize"
)

// SyncPullRequests reconciles one page of a project's pull requests. The
// detail of every listed pull request is fetched in parallel first.
func (s *Syncer) SyncPullRequests(ctx context.Context, projectID string, page, perPage int) (*Result, error) {
	t, err := s.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("syncing pull requests", "project", projectID, "repository", t.ref, "page", page)

	raw, totalPages, err := t.source.ListPullRequests(ctx, t.ref, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s: %w", t.ref, err)
	}
	if err := s.saveState(ctx, projectID, models.KindPullRequests, totalPages); err != nil {
		return nil, err
	}

	res := &Result{Kind: models.KindPullRequests, Fetched: len(raw), TotalPages: totalPages}

	details := make([]*api.PullRequestDetail, len(raw))
	errs := s.fanOut(ctx, "pull request details", len(raw), func(ctx context.Context, i int) error {
		d, err := t.source.GetPullRequestDetail(ctx, t.ref, raw[i].GetNumber())
		if err != nil {
			return err
		}
		details[i] = d
		return nil
	})

	existing, err := s.store.Hashes(ctx, projectID, models.KindPullRequests)
	if err != nil {
		return nil, fmt.Errorf("failed to load pull request hashes: %w", err)
	}

	for i, r := range raw {
		if errs[i] != nil {
			s.logger.Warn("skipping pull request", "project", projectID, "number", r.GetNumber(), "error", errs[i])
			res.Failed++
			continue
		}

		pr := normalize.PullRequest(r, details[i])
		hash, err := digest.Compute(pr)
		if err != nil {
			s.logger.Warn("skipping pull request", "project", projectID, "number", pr.Number, "error", err)
			res.Failed++
			continue
		}

		if digest.Classify(hash, existing) == digest.Unchanged {
			res.Unchanged++
			continue
		}

		if err := s.upsertPullRequest(ctx, projectID, pr, hash); err != nil {
			s.logger.Warn("skipping pull request", "project", projectID, "number", pr.Number, "error", err)
			res.Failed++
			continue
		}
		res.Upserted++
	}

	s.logger.Info("synced pull requests", "project", projectID, "page", page,
		"fetched", res.Fetched, "upserted", res.Upserted, "unchanged", res.Unchanged, "failed", res.Failed)
	return res, nil
}

func (s *Syncer) upsertPullRequest(ctx context.Context, projectID string, pr *models.PullRequest, hash string) error {
	creatorID, err := s.upsertUser(ctx, pr.Creator)
	if err != nil {
		return err
	}
	assigneeIDs, err := s.upsertMembers(ctx, pr.Assignees)
	if err != nil {
		return err
	}
	reviewerIDs, err := s.upsertMembers(ctx, pr.Reviewers)
	if err != nil {
		return err
	}
	labelIDs, err := s.upsertLabels(ctx, pr.Labels)
	if err != nil {
		return err
	}

	id, err := s.store.UpsertPullRequest(ctx, &models.PullRequestRecord{
		ProjectID:   projectID,
		PullRequest: pr,
		CreatorID:   creatorID,
	})
	if err != nil {
		return err
	}

	if err := s.link(ctx, models.RelPullRequestAssignee, id, assigneeIDs); err != nil {
		return err
	}
	if err := s.link(ctx, models.RelPullRequestReviewer, id, reviewerIDs); err != nil {
		return err
	}
	if err := s.link(ctx, models.RelPullRequestLabel, id, labelIDs); err != nil {
		return err
	}
	return s.store.SetHash(ctx, models.KindPullRequests, id, hash)
}
