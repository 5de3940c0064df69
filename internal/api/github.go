package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

// Options configures a GitHub API client
type Options struct {
	// BaseURL overrides the REST endpoint (GitHub Enterprise, tests)
	BaseURL string

	// RateLimit is the maximum number of requests per second; zero disables
	// client-side limiting
	RateLimit float64

	// RateBurst is the limiter burst size (default: 1)
	RateBurst int
}

// GitHubClient represents a client for the GitHub REST API
type GitHubClient struct {
	client *github.Client

	mu   sync.Mutex
	rate github.Rate
}

// NewGitHubClient creates a new GitHub API client. An empty token yields an
// unauthenticated client with GitHub's lower anonymous rate limit.
func NewGitHubClient(token string, opts Options) (*GitHubClient, error) {
	var transport http.RoundTripper = http.DefaultTransport

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		transport = &limitedTransport{
			base:    transport,
			limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), burst),
		}
	}

	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   transport,
		}
	}

	client := github.NewClient(&http.Client{Transport: transport})

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubClient{client: client}, nil
}

// limitedTransport waits on a token bucket before every request
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.base.RoundTrip(req)
}

// RateLimitError reports an exhausted GitHub rate limit
type RateLimitError struct {
	Op        string
	ResetTime time.Time
	Err       error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded, resets at %s", e.Op, e.ResetTime.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperror.ErrUpstreamUnavailable}
	}
	return []error{apperror.ErrUpstreamUnavailable, e.Err}
}

// Rate returns the rate limit reported by the most recent response
func (c *GitHubClient) Rate() github.Rate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

func (c *GitHubClient) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	c.mu.Lock()
	c.rate = resp.Rate
	c.mu.Unlock()
}

// checkBudget fails fast while the last known budget is exhausted
func (c *GitHubClient) checkBudget(op string) error {
	r := c.Rate()
	if r.Limit > 0 && r.Remaining == 0 && time.Now().Before(r.Reset.Time) {
		return &RateLimitError{Op: op, ResetTime: r.Reset.Time}
	}
	return nil
}

func (c *GitHubClient) wrap(op string, resp *github.Response, err error) error {
	c.observe(resp)

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitError{Op: op, ResetTime: rateErr.Rate.Reset.Time, Err: err}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitError{Op: op, ResetTime: time.Now().Add(abuseErr.GetRetryAfter()), Err: err}
	}

	return apperror.Upstream(op, err)
}

// CoreRate fetches the current REST budget. The endpoint itself does not
// count against it.
func (c *GitHubClient) CoreRate(ctx context.Context) (github.Rate, error) {
	limits, resp, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return github.Rate{}, c.wrap("get rate limit", resp, err)
	}
	if limits.Core == nil {
		return github.Rate{}, nil
	}

	c.mu.Lock()
	c.rate = *limits.Core
	c.mu.Unlock()

	return *limits.Core, nil
}

// GetRepository gets a repository by owner and name
func (c *GitHubClient) GetRepository(ctx context.Context, ref RepoRef) (*github.Repository, error) {
	op := "get repository " + ref.String()
	if err := c.checkBudget(op); err != nil {
		return nil, err
	}

	repo, resp, err := c.client.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, c.wrap(op, resp, err)
	}
	c.observe(resp)

	return repo, nil
}

// ListCommits lists one page of commits, newest first, and the total number
// of pages
func (c *GitHubClient) ListCommits(ctx context.Context, ref RepoRef, page, perPage int) ([]*github.RepositoryCommit, int, error) {
	op := "list commits " + ref.String()
	if err := c.checkBudget(op); err != nil {
		return nil, 0, err
	}

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	commits, resp, err := c.client.Repositories.ListCommits(ctx, ref.Owner, ref.Name, opts)
	if err != nil {
		return nil, 0, c.wrap(op, resp, err)
	}
	c.observe(resp)

	return commits, totalPages(resp.Header.Get("Link"), page), nil
}

// GetCommitDiff gets the unified diff of a single commit
func (c *GitHubClient) GetCommitDiff(ctx context.Context, ref RepoRef, sha string) (string, error) {
	op := fmt.Sprintf("get diff of %s@%s", ref, sha)
	if err := c.checkBudget(op); err != nil {
		return "", err
	}

	diff, resp, err := c.client.Repositories.GetCommitRaw(ctx, ref.Owner, ref.Name, sha, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", c.wrap(op, resp, err)
	}
	c.observe(resp)

	return diff, nil
}

// ListIssues lists one page of issues in all states, newest first, and the
// total number of pages
func (c *GitHubClient) ListIssues(ctx context.Context, ref RepoRef, page, perPage int) ([]*RawIssue, int, error) {
	op := "list issues " + ref.String()
	if err := c.checkBudget(op); err != nil {
		return nil, 0, err
	}

	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}

	var issues []*RawIssue
	resp, err := c.list(ctx, fmt.Sprintf("repos/%s/%s/issues", ref.Owner, ref.Name), opts, &issues)
	if err != nil {
		return nil, 0, c.wrap(op, resp, err)
	}
	c.observe(resp)

	return issues, totalPages(resp.Header.Get("Link"), page), nil
}

// ListPullRequests lists one page of pull requests in all states, newest
// first, and the total number of pages
func (c *GitHubClient) ListPullRequests(ctx context.Context, ref RepoRef, page, perPage int) ([]*RawPullRequest, int, error) {
	op := "list pull requests " + ref.String()
	if err := c.checkBudget(op); err != nil {
		return nil, 0, err
	}

	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}

	var prs []*RawPullRequest
	resp, err := c.list(ctx, fmt.Sprintf("repos/%s/%s/pulls", ref.Owner, ref.Name), opts, &prs)
	if err != nil {
		return nil, 0, c.wrap(op, resp, err)
	}
	c.observe(resp)

	return prs, totalPages(resp.Header.Get("Link"), page), nil
}

// GetPullRequestDetail gets the detail fields of a pull request and counts
// its review comments
func (c *GitHubClient) GetPullRequestDetail(ctx context.Context, ref RepoRef, number int) (*PullRequestDetail, error) {
	op := fmt.Sprintf("get pull request %s#%d", ref, number)
	if err := c.checkBudget(op); err != nil {
		return nil, err
	}

	pr, resp, err := c.client.PullRequests.Get(ctx, ref.Owner, ref.Name, number)
	if err != nil {
		return nil, c.wrap(op, resp, err)
	}
	c.observe(resp)

	reviewComments, err := c.countReviewComments(ctx, ref, number)
	if err != nil {
		return nil, err
	}

	return &PullRequestDetail{
		Comments:            pr.GetComments(),
		ReviewComments:      reviewComments,
		Additions:           pr.GetAdditions(),
		Deletions:           pr.GetDeletions(),
		ChangedFiles:        pr.GetChangedFiles(),
		Draft:               pr.GetDraft(),
		Mergeable:           pr.Mergeable,
		AutoMerge:           pr.AutoMerge != nil,
		MaintainerCanModify: pr.GetMaintainerCanModify(),
	}, nil
}

func (c *GitHubClient) countReviewComments(ctx context.Context, ref RepoRef, number int) (int, error) {
	op := fmt.Sprintf("list review comments %s#%d", ref, number)
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	count := 0
	for {
		comments, resp, err := c.client.PullRequests.ListComments(ctx, ref.Owner, ref.Name, number, opts)
		if err != nil {
			return 0, c.wrap(op, resp, err)
		}
		c.observe(resp)

		count += len(comments)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return count, nil
}

// list issues a GET for endpoints whose payloads decode into our own raw
// types instead of the go-github ones
func (c *GitHubClient) list(ctx context.Context, path string, opts interface{}, v interface{}) (*github.Response, error) {
	values, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list options: %w", err)
	}
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	req, err := c.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	return c.client.Do(ctx, req, v)
}

// ClientCache hands out one client per token so that per-project tokens and
// the shared default token each keep their own rate limit state
type ClientCache struct {
	defaultToken string
	opts         Options

	mu      sync.Mutex
	clients map[string]*GitHubClient
}

// NewClientCache creates a cache falling back to defaultToken
func NewClientCache(defaultToken string, opts Options) *ClientCache {
	return &ClientCache{
		defaultToken: defaultToken,
		opts:         opts,
		clients:      make(map[string]*GitHubClient),
	}
}

// For returns the client for token, or for the default token when empty
func (c *ClientCache) For(token string) (*GitHubClient, error) {
	if token == "" {
		token = c.defaultToken
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[token]; ok {
		return client, nil
	}

	client, err := NewGitHubClient(token, c.opts)
	if err != nil {
		return nil, err
	}
	c.clients[token] = client
	return client, nil
}
