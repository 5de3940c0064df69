package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/digest"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

// UpsertRepository saves the repository snapshot of a project and returns
// its row id
func (db *DB) UpsertRepository(ctx context.Context, rec *models.RepositoryRecord) (int64, error) {
	repo := rec.Repository

	topics, err := json.Marshal(repo.Topics)
	if err != nil {
		return 0, fmt.Errorf("failed to encode topics: %w", err)
	}
	if repo.Topics == nil {
		topics = []byte("[]")
	}

	query := `
	INSERT INTO repositories (project_id, external_id, name, private, owner_id, description, topics,
		open_issues, default_branch, created_at, updated_at, hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id) DO UPDATE SET
		external_id = excluded.external_id,
		name = excluded.name,
		private = excluded.private,
		owner_id = excluded.owner_id,
		description = excluded.description,
		topics = excluded.topics,
		open_issues = excluded.open_issues,
		default_branch = excluded.default_branch,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		hash = excluded.hash
	RETURNING id
	`

	var id int64
	err = db.queryRow(ctx, query,
		rec.ProjectID,
		repo.ID,
		repo.Name,
		repo.Private,
		rec.OwnerID,
		repo.Description,
		string(topics),
		repo.OpenIssues,
		repo.DefaultBranch,
		repo.CreatedAt.UTC(),
		repo.UpdatedAt.UTC(),
		rec.Hash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save repository %s: %w", repo.Name, err)
	}

	return id, nil
}

// UpsertIssue saves an issue keyed by project and GitHub id and returns its
// row id
func (db *DB) UpsertIssue(ctx context.Context, rec *models.IssueRecord) (int64, error) {
	issue := rec.Issue

	query := `
	INSERT INTO issues (project_id, issue_id, number, state, title, description, comments, creator_id,
		created_at, closed_by_id, closed_at, has_assignees, has_labels, hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id, issue_id) DO UPDATE SET
		number = excluded.number,
		state = excluded.state,
		title = excluded.title,
		description = excluded.description,
		comments = excluded.comments,
		creator_id = excluded.creator_id,
		created_at = excluded.created_at,
		closed_by_id = excluded.closed_by_id,
		closed_at = excluded.closed_at,
		has_assignees = excluded.has_assignees,
		has_labels = excluded.has_labels,
		hash = excluded.hash
	RETURNING id
	`

	var id int64
	err := db.queryRow(ctx, query,
		rec.ProjectID,
		issue.ID,
		issue.Number,
		issue.State,
		issue.Title,
		issue.Description,
		issue.Comments,
		rec.CreatorID,
		issue.CreatedAt.UTC(),
		rec.ClosedByID,
		utcPtr(issue.ClosedAt),
		issue.Assignees != nil,
		issue.Labels != nil,
		rec.Hash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save issue #%d: %w", issue.Number, err)
	}

	return id, nil
}

// UpsertPullRequest saves a pull request keyed by project and GitHub id and
// returns its row id
func (db *DB) UpsertPullRequest(ctx context.Context, rec *models.PullRequestRecord) (int64, error) {
	pr := rec.PullRequest

	query := `
	INSERT INTO pull_requests (project_id, pr_id, number, title, state, head_ref, base_ref, description,
		creator_id, created_at, closed_at, merged_at, comments, review_comments, additions, deletions,
		changed_files, draft, mergeable, auto_merge, maintainer_can_modify, has_assignees, has_reviewers,
		has_labels, hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id, pr_id) DO UPDATE SET
		number = excluded.number,
		title = excluded.title,
		state = excluded.state,
		head_ref = excluded.head_ref,
		base_ref = excluded.base_ref,
		description = excluded.description,
		creator_id = excluded.creator_id,
		created_at = excluded.created_at,
		closed_at = excluded.closed_at,
		merged_at = excluded.merged_at,
		comments = excluded.comments,
		review_comments = excluded.review_comments,
		additions = excluded.additions,
		deletions = excluded.deletions,
		changed_files = excluded.changed_files,
		draft = excluded.draft,
		mergeable = excluded.mergeable,
		auto_merge = excluded.auto_merge,
		maintainer_can_modify = excluded.maintainer_can_modify,
		has_assignees = excluded.has_assignees,
		has_reviewers = excluded.has_reviewers,
		has_labels = excluded.has_labels,
		hash = excluded.hash
	RETURNING id
	`

	var id int64
	err := db.queryRow(ctx, query,
		rec.ProjectID,
		pr.ID,
		pr.Number,
		pr.Title,
		pr.State,
		pr.HeadRef,
		pr.BaseRef,
		pr.Description,
		rec.CreatorID,
		pr.CreatedAt.UTC(),
		utcPtr(pr.ClosedAt),
		utcPtr(pr.MergedAt),
		pr.CommentsCount,
		pr.ReviewCommentsCount,
		pr.Additions,
		pr.Deletions,
		pr.ChangedFiles,
		pr.Draft,
		pr.Mergeable,
		pr.AutoMerge,
		pr.MaintainerCanModify,
		pr.Assignees != nil,
		pr.Reviewers != nil,
		pr.Labels != nil,
		rec.Hash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save pull request #%d: %w", pr.Number, err)
	}

	return id, nil
}

// InsertCommit stores a commit unless its SHA is already known for the
// project. It reports whether a row was written.
func (db *DB) InsertCommit(ctx context.Context, projectID string, c *models.Commit) (bool, error) {
	query := `
	INSERT INTO commits (project_id, sha, author_external_id, author_username, author_name, author_avatar,
		commit_date, message, summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id, sha) DO NOTHING
	`

	res, err := db.exec(ctx, query,
		projectID,
		c.SHA,
		c.Author.ID,
		c.Author.UserName,
		c.Author.Name,
		c.Author.AvatarURL,
		utcPtr(c.CommitDate),
		c.Message,
		c.Summary,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save commit %s: %w", c.SHA, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to save commit %s: %w", c.SHA, err)
	}

	return n > 0, nil
}

var hashTables = map[models.Kind]string{
	models.KindRepository:   "repositories",
	models.KindIssues:       "issues",
	models.KindPullRequests: "pull_requests",
}

// Hashes loads the content hashes stored for a project and kind
func (db *DB) Hashes(ctx context.Context, projectID string, kind models.Kind) (digest.Set, error) {
	table, ok := hashTables[kind]
	if !ok {
		return nil, fmt.Errorf("kind %q has no content hashes", kind)
	}

	return db.stringSet(ctx, fmt.Sprintf(`SELECT hash FROM %s WHERE project_id = ?`, table), projectID)
}

// SetHash records the content hash of a stored record. Records are written
// with an empty hash first and only marked once their links are in place,
// so a record whose links failed is picked up again by the next pass.
func (db *DB) SetHash(ctx context.Context, kind models.Kind, id int64, hash string) error {
	table, ok := hashTables[kind]
	if !ok {
		return fmt.Errorf("kind %q has no content hashes", kind)
	}

	_, err := db.exec(ctx, fmt.Sprintf(`UPDATE %s SET hash = ? WHERE id = ?`, table), hash, id)
	if err != nil {
		return fmt.Errorf("failed to save %s hash: %w", kind, err)
	}
	return nil
}

// CommitSHAs loads the SHAs already stored for a project
func (db *DB) CommitSHAs(ctx context.Context, projectID string) (digest.Set, error) {
	return db.stringSet(ctx, `SELECT sha FROM commits WHERE project_id = ?`, projectID)
}

func (db *DB) stringSet(ctx context.Context, query string, args ...any) (digest.Set, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}
	defer rows.Close()

	set := digest.Set{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		set.Add(s)
	}

	return set, rows.Err()
}
