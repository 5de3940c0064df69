package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

const projectID = "p1"

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Initialize())
	require.NoError(t, db.UpsertProject(context.Background(), &models.Project{
		ID:        projectID,
		Name:      "Alpha",
		GitHubURL: "https://github.com/octo/alpha",
	}))

	return db
}

func ptr[T any](v T) *T { return &v }

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	lite := &DB{dialect: SQLite}

	q := `SELECT a FROM t WHERE b = ? AND c IN (?, ?)`
	assert.Equal(t, `SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestProjects(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := db.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.False(t, p.CreatedAt.IsZero())

	require.NoError(t, db.UpsertProject(ctx, &models.Project{ID: projectID, Name: "Renamed", GitHubURL: p.GitHubURL, GitHubToken: "tok"}))
	require.NoError(t, db.UpsertProject(ctx, &models.Project{ID: "p2", Name: "Beta"}))

	projects, err := db.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Renamed", projects[0].Name)
	assert.Equal(t, "tok", projects[0].GitHubToken)

	_, err = db.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpsertUserDedupsByUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertUser(ctx, &models.UserProfile{ID: ptr(int64(1)), UserName: "ada", Name: "Ada", AvatarURL: "https://a/1"})
	require.NoError(t, err)
	second, err := db.UpsertUser(ctx, &models.UserProfile{UserName: "ada", AvatarURL: "https://a/2"})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	n, err := db.Count(ctx, "github_users")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var name, avatar string
	var externalID int64
	require.NoError(t, db.QueryRow(`SELECT name, avatar_url, external_id FROM github_users WHERE id = ?`, first).Scan(&name, &avatar, &externalID))
	assert.Equal(t, "Ada", name)
	assert.Equal(t, "https://a/2", avatar)
	assert.Equal(t, int64(1), externalID)

	_, err = db.UpsertUser(ctx, &models.UserProfile{})
	assert.Error(t, err)
}

func TestMembersAreSeparateFromUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertUser(ctx, &models.UserProfile{UserName: "ada"})
	require.NoError(t, err)
	_, err = db.UpsertMember(ctx, &models.UserProfile{UserName: "ada"})
	require.NoError(t, err)

	users, err := db.Count(ctx, "github_users")
	require.NoError(t, err)
	members, err := db.Count(ctx, "members")
	require.NoError(t, err)
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, members)
}

func TestUpsertLabelKeepsKnownColor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.UpsertLabel(ctx, &models.Label{ID: ptr(int64(9)), Name: "bug", Color: ptr("ff0000")})
	require.NoError(t, err)
	b, err := db.UpsertLabel(ctx, &models.Label{Name: "bug"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var color string
	require.NoError(t, db.QueryRow(`SELECT color FROM labels WHERE id = ?`, a).Scan(&color))
	assert.Equal(t, "ff0000", color)
}

func TestUpsertLinkIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	issueID, err := db.UpsertIssue(ctx, &models.IssueRecord{
		ProjectID: projectID,
		Issue:     &models.Issue{ID: 1, Number: 1, State: "open", Title: "t", CreatedAt: time.Now()},
		Hash:      "h1",
	})
	require.NoError(t, err)
	labelID, err := db.UpsertLabel(ctx, &models.Label{Name: "bug"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.UpsertLink(ctx, models.RelIssueLabel, issueID, labelID))
	}

	n, err := db.Count(ctx, "issue_labels")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, db.UpsertLink(ctx, models.Relation("bogus"), issueID, labelID))
}

func TestPullRequestMemberRolesAreDistinct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	prID, err := db.UpsertPullRequest(ctx, &models.PullRequestRecord{
		ProjectID:   projectID,
		PullRequest: &models.PullRequest{ID: 10, Number: 1, Title: "pr", State: "open", CreatedAt: time.Now()},
		Hash:        "h",
	})
	require.NoError(t, err)
	memberID, err := db.UpsertMember(ctx, &models.UserProfile{UserName: "ada"})
	require.NoError(t, err)

	require.NoError(t, db.UpsertLink(ctx, models.RelPullRequestAssignee, prID, memberID))
	require.NoError(t, db.UpsertLink(ctx, models.RelPullRequestReviewer, prID, memberID))
	require.NoError(t, db.UpsertLink(ctx, models.RelPullRequestReviewer, prID, memberID))

	n, err := db.Count(ctx, "pull_request_members")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIssueProjection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	creatorID, err := db.UpsertUser(ctx, &models.UserProfile{ID: ptr(int64(1)), UserName: "ada"})
	require.NoError(t, err)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	closed := created.Add(time.Hour)

	withLinks, err := db.UpsertIssue(ctx, &models.IssueRecord{
		ProjectID: projectID,
		Issue: &models.Issue{
			ID: 100, Number: 1, State: "closed", Title: "first", Description: ptr("body"),
			CreatedAt: created, ClosedAt: &closed,
			Assignees: []models.UserProfile{{UserName: "bob"}},
			Labels:    []models.Label{{Name: "bug"}},
		},
		CreatorID:  &creatorID,
		ClosedByID: &creatorID,
		Hash:       "h100",
	})
	require.NoError(t, err)

	_, err = db.UpsertIssue(ctx, &models.IssueRecord{
		ProjectID: projectID,
		Issue: &models.Issue{
			ID: 200, Number: 2, State: "open", Title: "second",
			CreatedAt: created.Add(24 * time.Hour),
			Labels:    []models.Label{},
		},
		Hash: "h200",
	})
	require.NoError(t, err)

	memberID, err := db.UpsertMember(ctx, &models.UserProfile{UserName: "bob"})
	require.NoError(t, err)
	labelID, err := db.UpsertLabel(ctx, &models.Label{Name: "bug", Color: ptr("ff0000")})
	require.NoError(t, err)
	require.NoError(t, db.UpsertLink(ctx, models.RelIssueAssignee, withLinks, memberID))
	require.NoError(t, db.UpsertLink(ctx, models.RelIssueLabel, withLinks, labelID))

	issues, err := db.ListIssues(ctx, projectID, 1, 10)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	newest, oldest := issues[0], issues[1]
	assert.Equal(t, int64(200), newest.ID)
	assert.Nil(t, newest.Assignees)
	assert.NotNil(t, newest.Labels)
	assert.Empty(t, newest.Labels)
	assert.Nil(t, newest.Creator)
	assert.Nil(t, newest.Description)

	assert.Equal(t, int64(100), oldest.ID)
	assert.True(t, created.Equal(oldest.CreatedAt))
	require.NotNil(t, oldest.ClosedAt)
	assert.True(t, closed.Equal(*oldest.ClosedAt))
	require.NotNil(t, oldest.Creator)
	assert.Equal(t, "ada", oldest.Creator.UserName)
	require.NotNil(t, oldest.ClosedBy)
	require.Len(t, oldest.Assignees, 1)
	assert.Equal(t, "bob", oldest.Assignees[0].UserName)
	require.Len(t, oldest.Labels, 1)
	assert.Equal(t, "ff0000", *oldest.Labels[0].Color)
	assert.Equal(t, "body", *oldest.Description)

	page2, err := db.ListIssues(ctx, projectID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(100), page2[0].ID)
}

func TestUpsertIssueUpdatesInPlace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := &models.IssueRecord{
		ProjectID: projectID,
		Issue:     &models.Issue{ID: 1, Number: 1, State: "open", Title: "t", CreatedAt: time.Now()},
		Hash:      "old",
	}
	first, err := db.UpsertIssue(ctx, rec)
	require.NoError(t, err)

	rec.Issue.State = "closed"
	rec.Hash = "new"
	second, err := db.UpsertIssue(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := db.Count(ctx, "issues")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hashes, err := db.Hashes(ctx, projectID, models.KindIssues)
	require.NoError(t, err)
	assert.True(t, hashes.Has("new"))
	assert.False(t, hashes.Has("old"))
}

func TestSetHash(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.UpsertIssue(ctx, &models.IssueRecord{
		ProjectID: projectID,
		Issue:     &models.Issue{ID: 1, Number: 1, State: "open", Title: "t", CreatedAt: time.Now()},
	})
	require.NoError(t, err)

	hashes, err := db.Hashes(ctx, projectID, models.KindIssues)
	require.NoError(t, err)
	assert.False(t, hashes.Has("h1"))

	require.NoError(t, db.SetHash(ctx, models.KindIssues, id, "h1"))

	hashes, err = db.Hashes(ctx, projectID, models.KindIssues)
	require.NoError(t, err)
	assert.True(t, hashes.Has("h1"))

	assert.Error(t, db.SetHash(ctx, models.KindCommits, id, "h1"))
}

func TestPullRequestProjection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	merged := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	prID, err := db.UpsertPullRequest(ctx, &models.PullRequestRecord{
		ProjectID: projectID,
		PullRequest: &models.PullRequest{
			ID: 500, Number: 12, Title: "Add cache", State: "closed", HeadRef: "cache", BaseRef: "main",
			CreatedAt: merged.Add(-48 * time.Hour), MergedAt: &merged,
			Reviewers: []models.UserProfile{{UserName: "dee"}},
			Additions: 40, Mergeable: ptr(true), MaintainerCanModify: true,
		},
		Hash: "h",
	})
	require.NoError(t, err)

	memberID, err := db.UpsertMember(ctx, &models.UserProfile{UserName: "dee"})
	require.NoError(t, err)
	require.NoError(t, db.UpsertLink(ctx, models.RelPullRequestReviewer, prID, memberID))

	prs, err := db.ListPullRequests(ctx, projectID, 1, 10)
	require.NoError(t, err)
	require.Len(t, prs, 1)

	pr := prs[0]
	assert.Equal(t, "cache", pr.HeadRef)
	require.NotNil(t, pr.MergedAt)
	assert.True(t, merged.Equal(*pr.MergedAt))
	assert.Nil(t, pr.ClosedAt)
	require.Len(t, pr.Reviewers, 1)
	assert.Equal(t, "dee", pr.Reviewers[0].UserName)
	assert.Nil(t, pr.Assignees)
	assert.Nil(t, pr.Labels)
	require.NotNil(t, pr.Mergeable)
	assert.True(t, *pr.Mergeable)
	assert.Equal(t, 40, pr.Additions)
	assert.True(t, pr.MaintainerCanModify)
}

func TestCommits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	inserted, err := db.InsertCommit(ctx, projectID, &models.Commit{SHA: "a", CommitDate: &older, Message: "one", Summary: "* one"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = db.InsertCommit(ctx, projectID, &models.Commit{SHA: "a", Message: "changed"})
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = db.InsertCommit(ctx, projectID, &models.Commit{
		SHA: "b", CommitDate: &newer, Message: "two",
		Author: models.UserProfile{ID: ptr(int64(7)), UserName: "ada"},
	})
	require.NoError(t, err)

	commits, err := db.ListCommits(ctx, projectID, 1, 10)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "b", commits[0].SHA)
	assert.Equal(t, "ada", commits[0].Author.UserName)
	assert.Equal(t, int64(7), *commits[0].Author.ID)
	assert.Equal(t, "one", commits[1].Message)
	assert.Equal(t, "* one", commits[1].Summary)

	shas, err := db.CommitSHAs(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, shas, 2)
	assert.True(t, shas.Has("a"))
}

func TestRepositoryProjection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	repo, err := db.GetRepository(ctx, projectID)
	require.NoError(t, err)
	assert.Nil(t, repo)

	ownerID, err := db.UpsertUser(ctx, &models.UserProfile{UserName: "octo"})
	require.NoError(t, err)

	_, err = db.UpsertRepository(ctx, &models.RepositoryRecord{
		ProjectID: projectID,
		Repository: &models.Repository{
			ID: 42, Name: "alpha", Topics: []string{"go", "sync"}, OpenIssues: 3, DefaultBranch: "main",
			CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		OwnerID: &ownerID,
		Hash:    "h1",
	})
	require.NoError(t, err)

	repo, err = db.GetRepository(ctx, projectID)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, int64(42), repo.ID)
	assert.Equal(t, []string{"go", "sync"}, repo.Topics)
	require.NotNil(t, repo.Owner)
	assert.Equal(t, "octo", repo.Owner.UserName)

	hashes, err := db.Hashes(ctx, projectID, models.KindRepository)
	require.NoError(t, err)
	assert.True(t, hashes.Has("h1"))

	_, err = db.Hashes(ctx, projectID, models.KindCommits)
	assert.Error(t, err)
}

func TestSyncState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	st, err := db.GetSyncState(ctx, projectID, models.KindIssues)
	require.NoError(t, err)
	assert.Nil(t, st)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveSyncState(ctx, &models.SyncState{ProjectID: projectID, Kind: models.KindIssues, TotalPages: 3, LastSyncTime: now}))
	require.NoError(t, db.SaveSyncState(ctx, &models.SyncState{ProjectID: projectID, Kind: models.KindIssues, TotalPages: 7, LastSyncTime: now}))

	st, err = db.GetSyncState(ctx, projectID, models.KindIssues)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 7, st.TotalPages)
	assert.True(t, now.Equal(st.LastSyncTime))
}

func TestCountRejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Count(context.Background(), "projects; DROP TABLE projects")
	assert.Error(t, err)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("DEVDASH_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("DEVDASH_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	db, err := Open(ctx, Options{Driver: Postgres, URL: url, ConnAttempts: 1})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Initialize())

	id := "pg-" + time.Now().Format("20060102150405.000000000")
	require.NoError(t, db.UpsertProject(ctx, &models.Project{ID: id, Name: "pg"}))

	userID, err := db.UpsertUser(ctx, &models.UserProfile{UserName: id})
	require.NoError(t, err)
	again, err := db.UpsertUser(ctx, &models.UserProfile{UserName: id})
	require.NoError(t, err)
	assert.Equal(t, userID, again)

	issueID, err := db.UpsertIssue(ctx, &models.IssueRecord{
		ProjectID: id,
		Issue:     &models.Issue{ID: 1, Number: 1, State: "open", Title: "t", CreatedAt: time.Now(), Labels: []models.Label{}},
		CreatorID: &userID,
		Hash:      "h",
	})
	require.NoError(t, err)
	labelID, err := db.UpsertLabel(ctx, &models.Label{Name: id})
	require.NoError(t, err)
	require.NoError(t, db.UpsertLink(ctx, models.RelIssueLabel, issueID, labelID))
	require.NoError(t, db.UpsertLink(ctx, models.RelIssueLabel, issueID, labelID))

	issues, err := db.ListIssues(ctx, id, 1, 10)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Len(t, issues[0].Labels, 1)
	assert.Equal(t, id, issues[0].Creator.UserName)
}
