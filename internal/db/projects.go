package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

// UpsertProject registers a project or updates its name, URL and token
func (db *DB) UpsertProject(ctx context.Context, p *models.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO projects (id, name, github_url, github_token, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		github_url = excluded.github_url,
		github_token = excluded.github_token
	`

	_, err := db.exec(ctx, query, p.ID, p.Name, p.GitHubURL, p.GitHubToken, p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

// GetProject gets a project by id
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT id, name, github_url, github_token, created_at FROM projects WHERE id = ?`

	var p models.Project
	err := db.queryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.GitHubURL, &p.GitHubToken, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()

	return &p, nil
}

// ListProjects lists all projects, oldest first
func (db *DB) ListProjects(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT id, name, github_url, github_token, created_at FROM projects ORDER BY created_at, id`

	rows, err := db.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.GitHubURL, &p.GitHubToken, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		projects = append(projects, &p)
	}

	return projects, rows.Err()
}
