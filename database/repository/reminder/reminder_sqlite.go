package reminderRepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"remindful/models"
)

const reminderColumns = `id, title, notes, event_at, timezone, repeat, offsets_millis, background_ref, enabled, is_deleted, updated_at`

// SQLiteReminderRepo implements ReminderRepository on the local store.
type SQLiteReminderRepo struct {
	db *sql.DB
}

// NewSQLiteReminderRepo returns a repository bound to the given handle.
func NewSQLiteReminderRepo(db *sql.DB) *SQLiteReminderRepo {
	return &SQLiteReminderRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var r models.Reminder
	var offsets string
	if err := row.Scan(&r.ID, &r.Title, &r.Notes, &r.EventAt, &r.Timezone, &r.Repeat,
		&offsets, &r.BackgroundRef, &r.Enabled, &r.IsDeleted, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(offsets), &r.OffsetsMillis); err != nil {
		return nil, fmt.Errorf("failed to decode offsets for reminder %s: %w", r.ID, err)
	}
	return &r, nil
}

func (repo *SQLiteReminderRepo) queryReminders(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select reminders: %w", err)
	}
	defer rows.Close()

	var result []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a reminder by id, tombstones included.
func (repo *SQLiteReminderRepo) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`
	r, err := scanReminder(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch reminder %s: %w", id, err)
	}
	return r, nil
}

// List retrieves all live reminders.
func (repo *SQLiteReminderRepo) List(ctx context.Context) ([]models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE is_deleted = 0 ORDER BY event_at`
	return repo.queryReminders(ctx, query)
}

// ListEnabled retrieves all live, enabled reminders.
func (repo *SQLiteReminderRepo) ListEnabled(ctx context.Context) ([]models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE is_deleted = 0 AND enabled = 1`
	return repo.queryReminders(ctx, query)
}

// ChangedAfter retrieves every row changed strictly after the watermark.
func (repo *SQLiteReminderRepo) ChangedAfter(ctx context.Context, updatedAfter *int64) ([]models.Reminder, error) {
	if updatedAfter == nil {
		query := `SELECT ` + reminderColumns + ` FROM reminders ORDER BY updated_at`
		return repo.queryReminders(ctx, query)
	}
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE updated_at > ? ORDER BY updated_at`
	return repo.queryReminders(ctx, query, *updatedAfter)
}

const upsertReminderQuery = `INSERT INTO reminders (` + reminderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title,
			notes = excluded.notes,
			event_at = excluded.event_at,
			timezone = excluded.timezone,
			repeat = excluded.repeat,
			offsets_millis = excluded.offsets_millis,
			background_ref = excluded.background_ref,
			enabled = excluded.enabled,
			is_deleted = excluded.is_deleted,
			updated_at = excluded.updated_at
`

func upsertArgs(r *models.Reminder) ([]any, error) {
	offsets, err := json.Marshal(r.OffsetsMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to encode offsets for reminder %s: %w", r.ID, err)
	}
	return []any{r.ID, r.Title, r.Notes, r.EventAt, r.Timezone, r.Repeat,
		string(offsets), r.BackgroundRef, r.Enabled, r.IsDeleted, r.UpdatedAt}, nil
}

// Save upserts a single reminder row.
func (repo *SQLiteReminderRepo) Save(ctx context.Context, r *models.Reminder) error {
	args, err := upsertArgs(r)
	if err != nil {
		return err
	}
	if _, err := repo.db.ExecContext(ctx, upsertReminderQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert reminder %s: %w", r.ID, err)
	}
	return nil
}

// UpsertAll inserts-or-replaces the given rows in one transaction.
func (repo *SQLiteReminderRepo) UpsertAll(ctx context.Context, items []models.Reminder) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range items {
		args, err := upsertArgs(&items[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertReminderQuery, args...); err != nil {
			return fmt.Errorf("failed to upsert reminder %s: %w", items[i].ID, err)
		}
	}
	return tx.Commit()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// MarkDeletedByIDs flips is_deleted on, touching no other column.
func (repo *SQLiteReminderRepo) MarkDeletedByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE reminders SET is_deleted = 1 WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, err := repo.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return fmt.Errorf("failed to mark reminders deleted: %w", err)
	}
	return nil
}

// UpdatedAtByID returns the row's updated_at, or nil when absent.
func (repo *SQLiteReminderRepo) UpdatedAtByID(ctx context.Context, id string) (*int64, error) {
	var updatedAt int64
	err := repo.db.QueryRowContext(ctx, `SELECT updated_at FROM reminders WHERE id = ?`, id).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch updated_at for %s: %w", id, err)
	}
	return &updatedAt, nil
}

// IsDeleted reports whether a local tombstone exists for id.
func (repo *SQLiteReminderRepo) IsDeleted(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := repo.db.QueryRowContext(ctx, `SELECT is_deleted FROM reminders WHERE id = ?`, id).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch tombstone state for %s: %w", id, err)
	}
	return deleted, nil
}

// TombstoneIDsBefore lists tombstone ids last touched strictly before cutoff.
func (repo *SQLiteReminderRepo) TombstoneIDsBefore(ctx context.Context, cutoff int64) ([]string, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id FROM reminders WHERE is_deleted = 1 AND updated_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tombstones: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// HardDeleteByIDs removes rows permanently, reporting how many went.
func (repo *SQLiteReminderRepo) HardDeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM reminders WHERE id IN (` + placeholders(len(ids)) + `)`
	res, err := repo.db.ExecContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to hard-delete reminders: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
