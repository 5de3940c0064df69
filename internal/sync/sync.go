package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/MurtazaD1410/developer-dashboard/internal/api"
	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
	"github.com/MurtazaD1410/developer-dashboard/internal/digest"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	"github.com/MurtazaD1410/developer-dashboard/internal/summarize"
)

const (
	defaultWorkers = 5
	maxWorkers     = 10
	defaultPerPage = 10

	progressInterval = 5 * time.Second
)

// Store is the persistence the syncer writes to
type Store interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)

	UpsertUser(ctx context.Context, u *models.UserProfile) (int64, error)
	UpsertMember(ctx context.Context, u *models.UserProfile) (int64, error)
	UpsertLabel(ctx context.Context, l *models.Label) (int64, error)
	UpsertLink(ctx context.Context, rel models.Relation, parentID, childID int64) error

	UpsertRepository(ctx context.Context, rec *models.RepositoryRecord) (int64, error)
	UpsertIssue(ctx context.Context, rec *models.IssueRecord) (int64, error)
	UpsertPullRequest(ctx context.Context, rec *models.PullRequestRecord) (int64, error)
	InsertCommit(ctx context.Context, projectID string, c *models.Commit) (bool, error)

	Hashes(ctx context.Context, projectID string, kind models.Kind) (digest.Set, error)
	SetHash(ctx context.Context, kind models.Kind, id int64, hash string) error
	CommitSHAs(ctx context.Context, projectID string) (digest.Set, error)
	SaveSyncState(ctx context.Context, st *models.SyncState) error
}

// Source is the GitHub API surface the syncer reads from
type Source interface {
	GetRepository(ctx context.Context, ref api.RepoRef) (*github.Repository, error)
	ListCommits(ctx context.Context, ref api.RepoRef, page, perPage int) ([]*github.RepositoryCommit, int, error)
	GetCommitDiff(ctx context.Context, ref api.RepoRef, sha string) (string, error)
	ListIssues(ctx context.Context, ref api.RepoRef, page, perPage int) ([]*api.RawIssue, int, error)
	ListPullRequests(ctx context.Context, ref api.RepoRef, page, perPage int) ([]*api.RawPullRequest, int, error)
	GetPullRequestDetail(ctx context.Context, ref api.RepoRef, number int) (*api.PullRequestDetail, error)
}

// SourceFunc returns the source to use for a project token. An empty
// token selects the default credentials.
type SourceFunc func(token string) (Source, error)

// FromClientCache adapts a client cache into a SourceFunc
func FromClientCache(cache *api.ClientCache) SourceFunc {
	return func(token string) (Source, error) {
		client, err := cache.For(token)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Result summarizes one reconciliation pass
type Result struct {
	Kind       models.Kind
	Fetched    int
	Upserted   int
	Unchanged  int
	Failed     int
	TotalPages int
}

// Syncer reconciles GitHub data for projects into the store
type Syncer struct {
	store      Store
	sources    SourceFunc
	summarizer summarize.Summarizer
	logger     *slog.Logger

	// Default number of workers for parallel fetches
	workers int
	perPage int
}

// New creates a new syncer
func New(store Store, sources SourceFunc, summarizer summarize.Summarizer, logger *slog.Logger) *Syncer {
	if summarizer == nil {
		summarizer = summarize.Disabled{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:      store,
		sources:    sources,
		summarizer: summarizer,
		logger:     logger,
		workers:    defaultWorkers,
		perPage:    defaultPerPage,
	}
}

// SetWorkers sets the number of parallel workers
func (s *Syncer) SetWorkers(workers int) {
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers // Cap to avoid overwhelming the GitHub API
	}
	s.workers = workers
}

// SetPerPage sets the page size used by SyncProject
func (s *Syncer) SetPerPage(perPage int) {
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > 100 {
		perPage = 100
	}
	s.perPage = perPage
}

// target is a project resolved to its repository and credentials
type target struct {
	project *models.Project
	ref     api.RepoRef
	source  Source
}

func (s *Syncer) reference(ctx context.Context, projectID string) (*models.Project, api.RepoRef, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, api.RepoRef{}, err
	}
	if project.GitHubURL == "" {
		return nil, api.RepoRef{}, apperror.ProjectHasNoRepository(projectID)
	}

	ref, err := api.ParseRepositoryURL(project.GitHubURL)
	if err != nil {
		return nil, api.RepoRef{}, err
	}

	return project, ref, nil
}

// Check verifies that a project exists and links a valid repository,
// without touching the network
func (s *Syncer) Check(ctx context.Context, projectID string) error {
	_, _, err := s.reference(ctx, projectID)
	return err
}

func (s *Syncer) resolve(ctx context.Context, projectID string) (*target, error) {
	project, ref, err := s.reference(ctx, projectID)
	if err != nil {
		return nil, err
	}

	source, err := s.sources(project.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client for project %s: %w", projectID, err)
	}

	return &target{project: project, ref: ref, source: source}, nil
}

// SyncProject runs one pass of every kind for the first page. A failing
// kind does not stop the others.
func (s *Syncer) SyncProject(ctx context.Context, projectID string) ([]*Result, error) {
	if err := s.Check(ctx, projectID); err != nil {
		return nil, err
	}

	passes := []struct {
		kind models.Kind
		run  func() (*Result, error)
	}{
		{models.KindRepository, func() (*Result, error) { return s.SyncRepository(ctx, projectID) }},
		{models.KindCommits, func() (*Result, error) { return s.SyncCommits(ctx, projectID, 1, s.perPage) }},
		{models.KindIssues, func() (*Result, error) { return s.SyncIssues(ctx, projectID, 1, s.perPage) }},
		{models.KindPullRequests, func() (*Result, error) { return s.SyncPullRequests(ctx, projectID, 1, s.perPage) }},
	}

	var (
		results []*Result
		errs    []error
	)
	for _, pass := range passes {
		res, err := pass.run()
		if err != nil {
			s.logger.Error("sync pass failed", "project", projectID, "kind", pass.kind, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", pass.kind, err))
			continue
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func (s *Syncer) saveState(ctx context.Context, projectID string, kind models.Kind, totalPages int) error {
	if totalPages < 1 {
		totalPages = 1
	}
	err := s.store.SaveSyncState(ctx, &models.SyncState{
		ProjectID:    projectID,
		Kind:         kind,
		TotalPages:   totalPages,
		LastSyncTime: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to update sync state for %s: %w", projectID, err)
	}
	return nil
}

// upsertUser saves an external profile and returns its row id, or nil when
// the record carries no such user
func (s *Syncer) upsertUser(ctx context.Context, u *models.UserProfile) (*int64, error) {
	if u == nil || u.UserName == "" {
		return nil, nil
	}
	id, err := s.store.UpsertUser(ctx, u)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *Syncer) upsertMembers(ctx context.Context, users []models.UserProfile) ([]int64, error) {
	ids := make([]int64, 0, len(users))
	for i := range users {
		if users[i].UserName == "" {
			continue
		}
		id, err := s.store.UpsertMember(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Syncer) upsertLabels(ctx context.Context, labels []models.Label) ([]int64, error) {
	ids := make([]int64, 0, len(labels))
	for i := range labels {
		if labels[i].Name == "" {
			continue
		}
		id, err := s.store.UpsertLabel(ctx, &labels[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Syncer) link(ctx context.Context, rel models.Relation, parentID int64, childIDs []int64) error {
	for _, childID := range childIDs {
		if err := s.store.UpsertLink(ctx, rel, parentID, childID); err != nil {
			return err
		}
	}
	return nil
}

// fanOut runs fn for every index with at most s.workers in flight. Every
// call settles on its own: fn records its outcome and failures never
// cancel siblings.
func (s *Syncer) fanOut(ctx context.Context, what string, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	progress := newProgress(s.logger, what, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
			} else {
				errs[i] = fn(gctx, i)
			}
			progress.done()
			return nil
		})
	}
	_ = g.Wait()

	var rateErr *api.RateLimitError
	for _, err := range errs {
		if errors.As(err, &rateErr) {
			s.logger.Warn("rate limit detected, remaining items are retried on the next poll",
				"what", what, "reset", rateErr.ResetTime.Format(time.RFC3339))
			break
		}
	}

	return errs
}

// progress logs fan-out progress at most every progressInterval
type progress struct {
	logger *slog.Logger
	what   string
	total  int

	mu        sync.Mutex
	processed int
	last      time.Time
}

func newProgress(logger *slog.Logger, what string, total int) *progress {
	return &progress{logger: logger, what: what, total: total, last: time.Now()}
}

func (p *progress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if p.processed == p.total || time.Since(p.last) >= progressInterval {
		p.logger.Debug("progress", "what", p.what, "processed", p.processed, "total", p.total)
		p.last = time.Now()
	}
}
