package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

var alpha = RepoRef{Owner: "octo", Name: "alpha"}

func newTestClient(t *testing.T, token string, mux *http.ServeMux) *GitHubClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewGitHubClient(token, Options{BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func TestListIssuesDecodesLabelsAndPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha/issues", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "all", q.Get("state"))
		assert.Equal(t, "created", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "5", q.Get("per_page"))

		w.Header().Set("Link", `<https://api.github.com/repositories/1/issues?per_page=5&page=3>; rel="next", `+
			`<https://api.github.com/repositories/1/issues?per_page=5&page=7>; rel="last"`)
		fmt.Fprint(w, `[
			{"id": 11, "number": 1, "state": "open", "title": "first",
			 "user": {"id": 1, "login": "ada"},
			 "labels": ["bug", {"id": 5, "name": "ui", "color": "ff0000"}],
			 "assignees": [{"id": 2, "login": "bob"}]},
			{"id": 12, "number": 2, "state": "closed", "title": "second", "labels": []}
		]`)
	})

	client := newTestClient(t, "", mux)
	issues, total, err := client.ListIssues(context.Background(), alpha, 2, 5)
	require.NoError(t, err)

	assert.Equal(t, 7, total)
	require.Len(t, issues, 2)

	first := issues[0]
	assert.Equal(t, int64(11), first.GetID())
	assert.Equal(t, "ada", first.GetUser().GetLogin())
	require.Len(t, first.Labels, 2)
	assert.Equal(t, StringLabel("bug"), first.Labels[0])
	assert.Equal(t, "ui", first.Labels[1].(ObjectLabel).Name)
	require.Len(t, first.Assignees, 1)

	assert.NotNil(t, issues[1].Labels)
	assert.Empty(t, issues[1].Labels)
}

func TestListPullRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		fmt.Fprint(w, `[{"id": 30, "number": 3, "state": "open", "title": "feature",
			"head": {"ref": "feature"}, "base": {"ref": "main"},
			"labels": [{"id": 9, "name": "enhancement", "color": "00ff00"}],
			"requested_reviewers": [{"id": 4, "login": "cy"}]}]`)
	})

	client := newTestClient(t, "", mux)
	prs, total, err := client.ListPullRequests(context.Background(), alpha, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, prs, 1)
	assert.Equal(t, "feature", prs[0].GetHead().GetRef())
	assert.Equal(t, "main", prs[0].GetBase().GetRef())
	require.Len(t, prs[0].RequestedReviewers, 1)
	require.Len(t, prs[0].Labels, 1)
}

func TestGetPullRequestDetailCountsAllReviewCommentPages(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 30, "number": 3, "comments": 4, "additions": 10, "deletions": 2,
			"changed_files": 3, "draft": true, "mergeable": false, "maintainer_can_modify": true,
			"auto_merge": {"merge_method": "squash"}}`)
	})
	mux.HandleFunc("/repos/octo/alpha/pulls/3/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"id": 3}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/alpha/pulls/3/comments?per_page=100&page=2>; rel="next"`, serverURL))
		fmt.Fprint(w, `[{"id": 1}, {"id": 2}]`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	client, err := NewGitHubClient("", Options{BaseURL: server.URL})
	require.NoError(t, err)

	detail, err := client.GetPullRequestDetail(context.Background(), alpha, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, detail.Comments)
	assert.Equal(t, 3, detail.ReviewComments)
	assert.Equal(t, 10, detail.Additions)
	assert.Equal(t, 2, detail.Deletions)
	assert.Equal(t, 3, detail.ChangedFiles)
	assert.True(t, detail.Draft)
	require.NotNil(t, detail.Mergeable)
	assert.False(t, *detail.Mergeable)
	assert.True(t, detail.AutoMerge)
	assert.True(t, detail.MaintainerCanModify)
}

func TestGetCommitDiffRequestsDiffMediaType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha/commits/abc123", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "diff")
		fmt.Fprint(w, "diff --git a/main.go b/main.go\n+hello\n")
	})

	client := newTestClient(t, "", mux)
	diff, err := client.GetCommitDiff(context.Background(), alpha, "abc123")
	require.NoError(t, err)
	assert.Contains(t, diff, "+hello")
}

func TestListCommits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		w.Header().Set("Link", `<https://api.github.com/repositories/1/commits?per_page=2&page=2>; rel="prev"`)
		fmt.Fprint(w, `[{"sha": "abc", "commit": {"message": "init", "author": {"name": "Ada", "date": "2024-01-02T03:04:05Z"}}}]`)
	})

	client := newTestClient(t, "", mux)
	commits, total, err := client.ListCommits(context.Background(), alpha, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	require.Len(t, commits, 1)
	assert.Equal(t, "abc", commits[0].GetSHA())
}

func TestAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"anonymous", "", ""},
		{"token", "secret", "Bearer secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/octo/alpha", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.want, r.Header.Get("Authorization"))
				fmt.Fprint(w, `{"id": 1, "name": "alpha"}`)
			})

			client := newTestClient(t, tt.token, mux)
			repo, err := client.GetRepository(context.Background(), alpha)
			require.NoError(t, err)
			assert.Equal(t, "alpha", repo.GetName())
		})
	}
}

func TestUpstreamErrorIsWrapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "boom"}`)
	})

	client := newTestClient(t, "", mux)
	_, err := client.GetRepository(context.Background(), alpha)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
}

func TestRateLimitFailsFastUntilReset(t *testing.T) {
	var hits atomic.Int32
	reset := time.Now().Add(time.Hour).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/alpha/issues", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded for 127.0.0.1."}`)
	})

	client := newTestClient(t, "", mux)

	_, _, err := client.ListIssues(context.Background(), alpha, 1, 10)
	require.Error(t, err)

	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, reset, rateErr.ResetTime.Unix())
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)

	_, _, err = client.ListIssues(context.Background(), alpha, 1, 10)
	require.Error(t, err)
	assert.True(t, errors.As(err, &rateErr))
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 0, client.Rate().Remaining)
}

func TestClientCacheReusesClientPerToken(t *testing.T) {
	cache := NewClientCache("default", Options{})

	a, err := cache.For("")
	require.NoError(t, err)
	b, err := cache.For("default")
	require.NoError(t, err)
	c, err := cache.For("project-token")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestCoreRate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resources": {"core": {"limit": 5000, "remaining": 4321, "reset": 1700000000}}}`)
	})
	client := newTestClient(t, "secret", mux)

	rate, err := client.CoreRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, rate.Limit)
	assert.Equal(t, 4321, rate.Remaining)
	assert.Equal(t, 4321, client.Rate().Remaining)
}
