package db

import (
	"context"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

// UpsertUser saves an external user profile keyed by username and returns
// its row id
func (db *DB) UpsertUser(ctx context.Context, u *models.UserProfile) (int64, error) {
	return db.upsertProfile(ctx, "github_users", u)
}

// UpsertMember saves an assigned or reviewing user keyed by username and
// returns its row id
func (db *DB) UpsertMember(ctx context.Context, u *models.UserProfile) (int64, error) {
	return db.upsertProfile(ctx, "members", u)
}

func (db *DB) upsertProfile(ctx context.Context, table string, u *models.UserProfile) (int64, error) {
	if u == nil || u.UserName == "" {
		return 0, fmt.Errorf("failed to save %s: username is required", table)
	}

	query := fmt.Sprintf(`
	INSERT INTO %[1]s (username, name, avatar_url, external_id)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(username) DO UPDATE SET
		name = COALESCE(NULLIF(excluded.name, ''), %[1]s.name),
		avatar_url = COALESCE(NULLIF(excluded.avatar_url, ''), %[1]s.avatar_url),
		external_id = COALESCE(excluded.external_id, %[1]s.external_id)
	RETURNING id
	`, table)

	var id int64
	if err := db.queryRow(ctx, query, u.UserName, u.Name, u.AvatarURL, u.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to save %s %s: %w", table, u.UserName, err)
	}

	return id, nil
}

// UpsertLabel saves a label keyed by name and returns its row id. A label
// seen without color or id keeps the values stored earlier.
func (db *DB) UpsertLabel(ctx context.Context, l *models.Label) (int64, error) {
	if l == nil || l.Name == "" {
		return 0, fmt.Errorf("failed to save label: name is required")
	}

	query := `
	INSERT INTO labels (name, color, external_id)
	VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		color = COALESCE(excluded.color, labels.color),
		external_id = COALESCE(excluded.external_id, labels.external_id)
	RETURNING id
	`

	var id int64
	if err := db.queryRow(ctx, query, l.Name, l.Color, l.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to save label %s: %w", l.Name, err)
	}

	return id, nil
}

// UpsertLink records a many-to-many link. Existing links are left alone.
func (db *DB) UpsertLink(ctx context.Context, rel models.Relation, parentID, childID int64) error {
	var (
		query string
		args  []any
	)

	switch rel {
	case models.RelIssueAssignee:
		query = `INSERT INTO issue_assignees (issue_id, member_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
		args = []any{parentID, childID}
	case models.RelIssueLabel:
		query = `INSERT INTO issue_labels (issue_id, label_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
		args = []any{parentID, childID}
	case models.RelPullRequestAssignee:
		query = `INSERT INTO pull_request_members (pull_request_id, member_id, role) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`
		args = []any{parentID, childID, "assignee"}
	case models.RelPullRequestReviewer:
		query = `INSERT INTO pull_request_members (pull_request_id, member_id, role) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`
		args = []any{parentID, childID, "reviewer"}
	case models.RelPullRequestLabel:
		query = `INSERT INTO pull_request_labels (pull_request_id, label_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
		args = []any{parentID, childID}
	default:
		return fmt.Errorf("unknown relation %q", rel)
	}

	if _, err := db.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save %s link: %w", rel, err)
	}

	return nil
}
