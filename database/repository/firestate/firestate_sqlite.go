package firestateRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"remindful/models"
)

// SQLiteFireStateRepo implements FireStateRepository on the local store.
type SQLiteFireStateRepo struct {
	db *sql.DB
}

// NewSQLiteFireStateRepo returns a repository bound to the given handle.
func NewSQLiteFireStateRepo(db *sql.DB) *SQLiteFireStateRepo {
	return &SQLiteFireStateRepo{db: db}
}

// Get retrieves the fire state for one trigger.
func (repo *SQLiteFireStateRepo) Get(ctx context.Context, reminderID string, offsetMillis int64) (*models.FireState, error) {
	query := `SELECT reminder_id, offset_millis, last_fired_at FROM fire_states
		WHERE reminder_id = ? AND offset_millis = ?`

	var fs models.FireState
	err := repo.db.QueryRowContext(ctx, query, reminderID, offsetMillis).
		Scan(&fs.ReminderID, &fs.OffsetMillis, &fs.LastFiredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch fire state %s/%d: %w", reminderID, offsetMillis, err)
	}
	return &fs, nil
}

// Upsert records a delivery.
func (repo *SQLiteFireStateRepo) Upsert(ctx context.Context, fs *models.FireState) error {
	query := `INSERT INTO fire_states (reminder_id, offset_millis, last_fired_at)
		VALUES (?, ?, ?)
		ON CONFLICT(reminder_id, offset_millis) DO UPDATE SET last_fired_at = excluded.last_fired_at
	`
	if _, err := repo.db.ExecContext(ctx, query, fs.ReminderID, fs.OffsetMillis, fs.LastFiredAt); err != nil {
		return fmt.Errorf("failed to upsert fire state %s/%d: %w", fs.ReminderID, fs.OffsetMillis, err)
	}
	return nil
}

// DeleteByReminder drops all fire state for a reminder.
func (repo *SQLiteFireStateRepo) DeleteByReminder(ctx context.Context, reminderID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM fire_states WHERE reminder_id = ?`, reminderID); err != nil {
		return fmt.Errorf("failed to delete fire state for %s: %w", reminderID, err)
	}
	return nil
}
