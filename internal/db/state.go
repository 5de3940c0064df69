package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

// SaveSyncState records the outcome of a successful fetch
func (db *DB) SaveSyncState(ctx context.Context, st *models.SyncState) error {
	query := `
	INSERT INTO sync_state (project_id, kind, total_pages, last_sync_time)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(project_id, kind) DO UPDATE SET
		total_pages = excluded.total_pages,
		last_sync_time = excluded.last_sync_time
	`

	_, err := db.exec(ctx, query, st.ProjectID, string(st.Kind), st.TotalPages, st.LastSyncTime.UTC())
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	return nil
}

// GetSyncState gets the sync state of a project and kind. It returns nil
// when the kind was never fetched.
func (db *DB) GetSyncState(ctx context.Context, projectID string, kind models.Kind) (*models.SyncState, error) {
	query := `SELECT total_pages, last_sync_time FROM sync_state WHERE project_id = ? AND kind = ?`

	st := models.SyncState{ProjectID: projectID, Kind: kind}
	err := db.queryRow(ctx, query, projectID, string(kind)).Scan(&st.TotalPages, &st.LastSyncTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	st.LastSyncTime = st.LastSyncTime.UTC()

	return &st, nil
}
