// Package query serves stored GitHub data for a project and refreshes it
// in the background. Reads never wait for GitHub: each call returns what
// the store holds and starts a detached reconciliation pass for the same
// kind and page.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	devsync "github.com/MurtazaD1410/developer-dashboard/internal/sync"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	DefaultPassTimeout = 2 * time.Minute
)

// Store is the read side of the persistence layer
type Store interface {
	GetRepository(ctx context.Context, projectID string) (*models.Repository, error)
	ListCommits(ctx context.Context, projectID string, page, limit int) ([]models.Commit, error)
	ListIssues(ctx context.Context, projectID string, page, limit int) ([]models.Issue, error)
	ListPullRequests(ctx context.Context, projectID string, page, limit int) ([]models.PullRequest, error)
	GetSyncState(ctx context.Context, projectID string, kind models.Kind) (*models.SyncState, error)
}

// Reconciler runs reconciliation passes. *sync.Syncer implements it.
type Reconciler interface {
	Check(ctx context.Context, projectID string) error
	SyncRepository(ctx context.Context, projectID string) (*devsync.Result, error)
	SyncCommits(ctx context.Context, projectID string, page, perPage int) (*devsync.Result, error)
	SyncIssues(ctx context.Context, projectID string, page, perPage int) (*devsync.Result, error)
	SyncPullRequests(ctx context.Context, projectID string, page, perPage int) (*devsync.Result, error)
}

type RepositoryView struct {
	Repository *models.Repository `json:"repository"`
}

type CommitsPage struct {
	Commits    []models.Commit `json:"commits"`
	TotalPages int             `json:"totalPages"`
}

type IssuesPage struct {
	Issues     []models.Issue `json:"issues"`
	TotalPages int            `json:"totalPages"`
}

type PullRequestsPage struct {
	PullRequests []models.PullRequest `json:"pullRequests"`
	TotalPages   int                  `json:"totalPages"`
}

// Service is the read-only query surface
type Service struct {
	store      Store
	reconciler Reconciler
	logger     *slog.Logger
	timeout    time.Duration

	inflight singleflight.Group
	wg       sync.WaitGroup
}

// New creates a query service. A non-positive timeout selects
// DefaultPassTimeout.
func New(store Store, reconciler Reconciler, logger *slog.Logger, timeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultPassTimeout
	}
	return &Service{
		store:      store,
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
	}
}

// GetRepository returns the stored repository snapshot. Repository is nil
// until the first pass has stored one.
func (s *Service) GetRepository(ctx context.Context, projectID string) (*RepositoryView, error) {
	if err := s.reconciler.Check(ctx, projectID); err != nil {
		return nil, err
	}

	s.revalidate(projectID, models.KindRepository, 1, 1, func(ctx context.Context) (*devsync.Result, error) {
		return s.reconciler.SyncRepository(ctx, projectID)
	})

	repo, err := s.store.GetRepository(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}
	return &RepositoryView{Repository: repo}, nil
}

func (s *Service) GetCommits(ctx context.Context, projectID string, page, limit int) (*CommitsPage, error) {
	if err := s.prepare(ctx, projectID, page, limit); err != nil {
		return nil, err
	}

	s.revalidate(projectID, models.KindCommits, page, limit, func(ctx context.Context) (*devsync.Result, error) {
		return s.reconciler.SyncCommits(ctx, projectID, page, limit)
	})

	commits, err := s.store.ListCommits(ctx, projectID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load commits: %w", err)
	}
	total, err := s.totalPages(ctx, projectID, models.KindCommits)
	if err != nil {
		return nil, err
	}
	return &CommitsPage{Commits: commits, TotalPages: total}, nil
}

func (s *Service) GetIssues(ctx context.Context, projectID string, page, limit int) (*IssuesPage, error) {
	if err := s.prepare(ctx, projectID, page, limit); err != nil {
		return nil, err
	}

	s.revalidate(projectID, models.KindIssues, page, limit, func(ctx context.Context) (*devsync.Result, error) {
		return s.reconciler.SyncIssues(ctx, projectID, page, limit)
	})

	issues, err := s.store.ListIssues(ctx, projectID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load issues: %w", err)
	}
	total, err := s.totalPages(ctx, projectID, models.KindIssues)
	if err != nil {
		return nil, err
	}
	return &IssuesPage{Issues: issues, TotalPages: total}, nil
}

func (s *Service) GetPullRequests(ctx context.Context, projectID string, page, limit int) (*PullRequestsPage, error) {
	if err := s.prepare(ctx, projectID, page, limit); err != nil {
		return nil, err
	}

	s.revalidate(projectID, models.KindPullRequests, page, limit, func(ctx context.Context) (*devsync.Result, error) {
		return s.reconciler.SyncPullRequests(ctx, projectID, page, limit)
	})

	prs, err := s.store.ListPullRequests(ctx, projectID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load pull requests: %w", err)
	}
	total, err := s.totalPages(ctx, projectID, models.KindPullRequests)
	if err != nil {
		return nil, err
	}
	return &PullRequestsPage{PullRequests: prs, TotalPages: total}, nil
}

// Wait blocks until every detached pass has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) prepare(ctx context.Context, projectID string, page, limit int) error {
	if page < 1 {
		return apperror.ValidationFailed("page", "page must be at least 1")
	}
	if limit < 1 || limit > MaxLimit {
		return apperror.ValidationFailed("limit", fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}
	return s.reconciler.Check(ctx, projectID)
}

func (s *Service) totalPages(ctx context.Context, projectID string, kind models.Kind) (int, error) {
	st, err := s.store.GetSyncState(ctx, projectID, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to load sync state: %w", err)
	}
	if st == nil || st.TotalPages < 1 {
		return 1, nil
	}
	return st.TotalPages, nil
}

// revalidate starts a detached pass unless one with the same key is
// already running. The pass outlives the request; its errors are only
// logged.
func (s *Service) revalidate(projectID string, kind models.Kind, page, limit int, run func(ctx context.Context) (*devsync.Result, error)) {
	key := fmt.Sprintf("%s:%s:%d:%d", projectID, kind, page, limit)

	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		res, err := run(ctx)
		if err != nil {
			s.logger.Error("background sync failed", "project", projectID, "kind", kind, "page", page, "error", err)
			return nil, err
		}
		s.logger.Debug("background sync finished", "project", projectID, "kind", kind, "page", page,
			"upserted", res.Upserted, "unchanged", res.Unchanged, "failed", res.Failed)
		return res, nil
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ch
	}()
}
