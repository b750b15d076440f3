package checkpointRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"remindful/models"
)

// SQLiteCheckpointRepo implements CheckpointRepository on the local store.
type SQLiteCheckpointRepo struct {
	db *sql.DB
}

// NewSQLiteCheckpointRepo returns a repository bound to the given handle.
func NewSQLiteCheckpointRepo(db *sql.DB) *SQLiteCheckpointRepo {
	return &SQLiteCheckpointRepo{db: db}
}

// Get retrieves the checkpoint for an entity key.
func (repo *SQLiteCheckpointRepo) Get(ctx context.Context, key string) (*models.SyncCheckpoint, error) {
	query := `SELECT entity_key, last_local_sync_at, last_remote_sync_at FROM sync_checkpoints WHERE entity_key = ?`

	var cp models.SyncCheckpoint
	var local, remote sql.NullInt64
	err := repo.db.QueryRowContext(ctx, query, key).Scan(&cp.Key, &local, &remote)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch checkpoint %s: %w", key, err)
	}
	if local.Valid {
		cp.LastLocalSyncAt = &local.Int64
	}
	if remote.Valid {
		cp.LastRemoteSyncAt = &remote.Int64
	}
	return &cp, nil
}

// Upsert replaces the checkpoint row for its key.
func (repo *SQLiteCheckpointRepo) Upsert(ctx context.Context, cp *models.SyncCheckpoint) error {
	query := `INSERT INTO sync_checkpoints (entity_key, last_local_sync_at, last_remote_sync_at)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_key) DO UPDATE SET last_local_sync_at = excluded.last_local_sync_at,
			last_remote_sync_at = excluded.last_remote_sync_at
	`
	var local, remote sql.NullInt64
	if cp.LastLocalSyncAt != nil {
		local = sql.NullInt64{Int64: *cp.LastLocalSyncAt, Valid: true}
	}
	if cp.LastRemoteSyncAt != nil {
		remote = sql.NullInt64{Int64: *cp.LastRemoteSyncAt, Valid: true}
	}
	if _, err := repo.db.ExecContext(ctx, query, cp.Key, local, remote); err != nil {
		return fmt.Errorf("failed to upsert checkpoint %s: %w", cp.Key, err)
	}
	return nil
}
