package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

// profileColumns scans the columns of a LEFT JOINed user table
type profileColumns struct {
	externalID sql.NullInt64
	username   sql.NullString
	name       sql.NullString
	avatar     sql.NullString
}

func (p *profileColumns) dest() []any {
	return []any{&p.externalID, &p.username, &p.name, &p.avatar}
}

func (p *profileColumns) profile() *models.UserProfile {
	if !p.username.Valid {
		return nil
	}
	return &models.UserProfile{
		ID:        nullInt64(p.externalID),
		UserName:  p.username.String,
		Name:      p.name.String,
		AvatarURL: p.avatar.String,
	}
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// GetRepository gets the stored repository of a project, or nil when none
// was synced yet
func (db *DB) GetRepository(ctx context.Context, projectID string) (*models.Repository, error) {
	query := `
	SELECT r.external_id, r.name, r.private, r.description, r.topics, r.open_issues, r.default_branch,
		r.created_at, r.updated_at,
		u.external_id, u.username, u.name, u.avatar_url
	FROM repositories r
	LEFT JOIN github_users u ON u.id = r.owner_id
	WHERE r.project_id = ?
	`

	var (
		repo   models.Repository
		topics string
		owner  profileColumns
	)
	dest := append([]any{
		&repo.ID, &repo.Name, &repo.Private, &repo.Description, &topics, &repo.OpenIssues,
		&repo.DefaultBranch, &repo.CreatedAt, &repo.UpdatedAt,
	}, owner.dest()...)

	err := db.queryRow(ctx, query, projectID).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}

	if err := json.Unmarshal([]byte(topics), &repo.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	repo.Owner = owner.profile()
	repo.CreatedAt = repo.CreatedAt.UTC()
	repo.UpdatedAt = repo.UpdatedAt.UTC()

	return &repo, nil
}

// ListCommits lists one page of stored commits, newest first
func (db *DB) ListCommits(ctx context.Context, projectID string, page, limit int) ([]models.Commit, error) {
	query := `
	SELECT sha, author_external_id, author_username, author_name, author_avatar, commit_date, message, summary
	FROM commits
	WHERE project_id = ?
	ORDER BY commit_date IS NULL, commit_date DESC, id DESC
	LIMIT ? OFFSET ?
	`

	rows, err := db.query(ctx, query, projectID, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	commits := []models.Commit{}
	for rows.Next() {
		var (
			c          models.Commit
			authorID   sql.NullInt64
			commitDate sql.NullTime
		)
		err := rows.Scan(&c.SHA, &authorID, &c.Author.UserName, &c.Author.Name, &c.Author.AvatarURL,
			&commitDate, &c.Message, &c.Summary)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		c.Author.ID = nullInt64(authorID)
		c.CommitDate = nullTime(commitDate)
		commits = append(commits, c)
	}

	return commits, rows.Err()
}

// ListIssues lists one page of stored issues, newest first, with their
// creator, closer, assignees and labels
func (db *DB) ListIssues(ctx context.Context, projectID string, page, limit int) ([]models.Issue, error) {
	query := `
	SELECT i.id, i.issue_id, i.number, i.state, i.title, i.description, i.comments, i.created_at,
		i.closed_at, i.has_assignees, i.has_labels,
		c.external_id, c.username, c.name, c.avatar_url,
		cb.external_id, cb.username, cb.name, cb.avatar_url
	FROM issues i
	LEFT JOIN github_users c ON c.id = i.creator_id
	LEFT JOIN github_users cb ON cb.id = i.closed_by_id
	WHERE i.project_id = ?
	ORDER BY i.created_at DESC, i.issue_id DESC
	LIMIT ? OFFSET ?
	`

	rows, err := db.query(ctx, query, projectID, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	type row struct {
		id           int64
		issue        models.Issue
		hasAssignees bool
		hasLabels    bool
	}

	var list []row
	for rows.Next() {
		var (
			r           row
			description sql.NullString
			closedAt    sql.NullTime
			creator     profileColumns
			closedBy    profileColumns
		)
		dest := []any{
			&r.id, &r.issue.ID, &r.issue.Number, &r.issue.State, &r.issue.Title, &description,
			&r.issue.Comments, &r.issue.CreatedAt, &closedAt, &r.hasAssignees, &r.hasLabels,
		}
		dest = append(dest, creator.dest()...)
		dest = append(dest, closedBy.dest()...)

		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}

		r.issue.Description = nullString(description)
		r.issue.CreatedAt = r.issue.CreatedAt.UTC()
		r.issue.ClosedAt = nullTime(closedAt)
		r.issue.Creator = creator.profile()
		r.issue.ClosedBy = closedBy.profile()
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	rows.Close()

	ids := make([]int64, len(list))
	for i, r := range list {
		ids[i] = r.id
	}

	assignees, err := db.linkedMembers(ctx,
		`SELECT l.issue_id, m.external_id, m.username, m.name, m.avatar_url
		FROM issue_assignees l JOIN members m ON m.id = l.member_id
		WHERE l.issue_id IN (%s) ORDER BY m.username`, ids)
	if err != nil {
		return nil, err
	}

	labels, err := db.linkedLabels(ctx,
		`SELECT l.issue_id, lb.external_id, lb.name, lb.color
		FROM issue_labels l JOIN labels lb ON lb.id = l.label_id
		WHERE l.issue_id IN (%s) ORDER BY lb.name`, ids)
	if err != nil {
		return nil, err
	}

	issues := make([]models.Issue, 0, len(list))
	for _, r := range list {
		if r.hasAssignees {
			r.issue.Assignees = orEmpty(assignees[r.id])
		}
		if r.hasLabels {
			r.issue.Labels = orEmpty(labels[r.id])
		}
		issues = append(issues, r.issue)
	}

	return issues, nil
}

// ListPullRequests lists one page of stored pull requests, newest first,
// with their creator, reviewers, assignees and labels
func (db *DB) ListPullRequests(ctx context.Context, projectID string, page, limit int) ([]models.PullRequest, error) {
	query := `
	SELECT p.id, p.pr_id, p.number, p.title, p.state, p.head_ref, p.base_ref, p.description, p.created_at,
		p.closed_at, p.merged_at, p.comments, p.review_comments, p.additions, p.deletions, p.changed_files,
		p.draft, p.mergeable, p.auto_merge, p.maintainer_can_modify,
		p.has_assignees, p.has_reviewers, p.has_labels,
		c.external_id, c.username, c.name, c.avatar_url
	FROM pull_requests p
	LEFT JOIN github_users c ON c.id = p.creator_id
	WHERE p.project_id = ?
	ORDER BY p.created_at DESC, p.pr_id DESC
	LIMIT ? OFFSET ?
	`

	rows, err := db.query(ctx, query, projectID, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}

	type row struct {
		id           int64
		pr           models.PullRequest
		hasAssignees bool
		hasReviewers bool
		hasLabels    bool
	}

	var list []row
	for rows.Next() {
		var (
			r           row
			description sql.NullString
			closedAt    sql.NullTime
			mergedAt    sql.NullTime
			mergeable   sql.NullBool
			creator     profileColumns
		)
		dest := []any{
			&r.id, &r.pr.ID, &r.pr.Number, &r.pr.Title, &r.pr.State, &r.pr.HeadRef, &r.pr.BaseRef,
			&description, &r.pr.CreatedAt, &closedAt, &mergedAt, &r.pr.CommentsCount,
			&r.pr.ReviewCommentsCount, &r.pr.Additions, &r.pr.Deletions, &r.pr.ChangedFiles,
			&r.pr.Draft, &mergeable, &r.pr.AutoMerge, &r.pr.MaintainerCanModify,
			&r.hasAssignees, &r.hasReviewers, &r.hasLabels,
		}
		dest = append(dest, creator.dest()...)

		if err := rows.Scan(dest...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan pull request: %w", err)
		}

		r.pr.Description = nullString(description)
		r.pr.CreatedAt = r.pr.CreatedAt.UTC()
		r.pr.ClosedAt = nullTime(closedAt)
		r.pr.MergedAt = nullTime(mergedAt)
		if mergeable.Valid {
			v := mergeable.Bool
			r.pr.Mergeable = &v
		}
		r.pr.Creator = creator.profile()
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	rows.Close()

	ids := make([]int64, len(list))
	for i, r := range list {
		ids[i] = r.id
	}

	memberQuery := `SELECT l.pull_request_id, m.external_id, m.username, m.name, m.avatar_url
		FROM pull_request_members l JOIN members m ON m.id = l.member_id
		WHERE l.role = '%s' AND l.pull_request_id IN (%%s) ORDER BY m.username`

	assignees, err := db.linkedMembers(ctx, fmt.Sprintf(memberQuery, "assignee"), ids)
	if err != nil {
		return nil, err
	}

	reviewers, err := db.linkedMembers(ctx, fmt.Sprintf(memberQuery, "reviewer"), ids)
	if err != nil {
		return nil, err
	}

	labels, err := db.linkedLabels(ctx,
		`SELECT l.pull_request_id, lb.external_id, lb.name, lb.color
		FROM pull_request_labels l JOIN labels lb ON lb.id = l.label_id
		WHERE l.pull_request_id IN (%s) ORDER BY lb.name`, ids)
	if err != nil {
		return nil, err
	}

	prs := make([]models.PullRequest, 0, len(list))
	for _, r := range list {
		if r.hasAssignees {
			r.pr.Assignees = orEmpty(assignees[r.id])
		}
		if r.hasReviewers {
			r.pr.Reviewers = orEmpty(reviewers[r.id])
		}
		if r.hasLabels {
			r.pr.Labels = orEmpty(labels[r.id])
		}
		prs = append(prs, r.pr)
	}

	return prs, nil
}

// linkedMembers runs a link query whose "%s" is replaced by the parent id
// placeholders and groups the members by parent
func (db *DB) linkedMembers(ctx context.Context, query string, ids []int64) (map[int64][]models.UserProfile, error) {
	out := make(map[int64][]models.UserProfile)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.query(ctx, fmt.Sprintf(query, placeholders(len(ids))), int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			parentID int64
			member   profileColumns
		)
		if err := rows.Scan(append([]any{&parentID}, member.dest()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out[parentID] = append(out[parentID], *member.profile())
	}

	return out, rows.Err()
}

func (db *DB) linkedLabels(ctx context.Context, query string, ids []int64) (map[int64][]models.Label, error) {
	out := make(map[int64][]models.Label)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.query(ctx, fmt.Sprintf(query, placeholders(len(ids))), int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			parentID   int64
			externalID sql.NullInt64
			label      models.Label
			color      sql.NullString
		)
		if err := rows.Scan(&parentID, &externalID, &label.Name, &color); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		label.ID = nullInt64(externalID)
		label.Color = nullString(color)
		out[parentID] = append(out[parentID], label)
	}

	return out, rows.Err()
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
