package triggerRepo

import (
	"context"
	"database/sql"
	"fmt"

	"remindful/models"
)

// SQLiteTriggerRepo implements TriggerRepository on the local store.
type SQLiteTriggerRepo struct {
	db *sql.DB
}

// NewSQLiteTriggerRepo returns a repository bound to the given handle.
func NewSQLiteTriggerRepo(db *sql.DB) *SQLiteTriggerRepo {
	return &SQLiteTriggerRepo{db: db}
}

func (repo *SQLiteTriggerRepo) Upsert(ctx context.Context, t *models.ScheduledTrigger) error {
	query := `INSERT INTO scheduled_triggers (reminder_id, offset_millis, fire_at, task_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(reminder_id, offset_millis) DO UPDATE SET
			fire_at = excluded.fire_at,
			task_id = excluded.task_id`
	if _, err := repo.db.ExecContext(ctx, query, t.ReminderID, t.OffsetMillis, t.FireAt, t.TaskID); err != nil {
		return fmt.Errorf("failed to upsert trigger for %s: %w", t.ReminderID, err)
	}
	return nil
}

func (repo *SQLiteTriggerRepo) ListByReminder(ctx context.Context, reminderID string) ([]models.ScheduledTrigger, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT reminder_id, offset_millis, fire_at, task_id FROM scheduled_triggers WHERE reminder_id = ?`,
		reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers for %s: %w", reminderID, err)
	}
	defer rows.Close()

	var result []models.ScheduledTrigger
	for rows.Next() {
		var t models.ScheduledTrigger
		if err := rows.Scan(&t.ReminderID, &t.OffsetMillis, &t.FireAt, &t.TaskID); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (repo *SQLiteTriggerRepo) Delete(ctx context.Context, reminderID string, offsetMillis int64) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM scheduled_triggers WHERE reminder_id = ? AND offset_millis = ?`,
		reminderID, offsetMillis)
	if err != nil {
		return fmt.Errorf("failed to delete trigger for %s: %w", reminderID, err)
	}
	return nil
}

func (repo *SQLiteTriggerRepo) DeleteByReminder(ctx context.Context, reminderID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM scheduled_triggers WHERE reminder_id = ?`, reminderID)
	if err != nil {
		return fmt.Errorf("failed to delete triggers for %s: %w", reminderID, err)
	}
	return nil
}
