package reminderRepo

import (
	"context"

	"remindful/models"
)

// ReminderRepository defines local reminder data access. Tombstoned rows stay
// in the table until the garbage collector removes them.
type ReminderRepository interface {
	// GetByID retrieves a reminder by id, tombstones included. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	// List retrieves all live (non-deleted) reminders.
	List(ctx context.Context) ([]models.Reminder, error)
	// ListEnabled retrieves all live, enabled reminders.
	ListEnabled(ctx context.Context) ([]models.Reminder, error)
	// ChangedAfter retrieves every row, tombstones included, with updated_at
	// strictly greater than the watermark. A nil watermark returns all rows.
	ChangedAfter(ctx context.Context, updatedAfter *int64) ([]models.Reminder, error)
	// Save upserts a single reminder row.
	Save(ctx context.Context, r *models.Reminder) error
	// UpsertAll inserts-or-replaces the given rows in one transaction.
	UpsertAll(ctx context.Context, items []models.Reminder) error
	// MarkDeletedByIDs flips is_deleted on, touching no other column.
	MarkDeletedByIDs(ctx context.Context, ids []string) error
	// UpdatedAtByID returns the row's updated_at, or nil when absent.
	UpdatedAtByID(ctx context.Context, id string) (*int64, error)
	// IsDeleted reports whether a local tombstone exists for id. A missing
	// row reports false.
	IsDeleted(ctx context.Context, id string) (bool, error)
	// TombstoneIDsBefore lists tombstone ids with updated_at strictly below cutoff.
	TombstoneIDsBefore(ctx context.Context, cutoff int64) ([]string, error)
	// HardDeleteByIDs removes rows permanently, reporting how many went.
	HardDeleteByIDs(ctx context.Context, ids []string) (int64, error)
}
