package reminder

import (
	"context"
	"errors"
	"time"

	reminderRepo "remindful/database/repository/reminder"
	"remindful/models"
	"remindful/services/scheduler"
)

var (
	// ErrNotFound reports that no live reminder exists for the id.
	ErrNotFound = errors.New("reminder not found")
	// ErrDeleted reports an edit attempt on a tombstoned reminder. The
	// deleted flag only ever moves one way through this service; replication
	// is the sole writer allowed to replace a tombstone.
	ErrDeleted = errors.New("reminder is deleted")
	// ErrInvalid reports a reminder that failed validation.
	ErrInvalid = errors.New("invalid reminder")
)

// ReminderService owns reminder CRUD. Every mutation bumps the row's
// updatedAt so it enters the next replication window, and keeps the alarm
// platform in step through the scheduling engine.
type ReminderService interface {
	Create(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	Update(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*models.Reminder, error)
	// Delete tombstones the reminder and cancels its triggers. Deleting a
	// missing or already-deleted reminder is a no-op.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	List(ctx context.Context) ([]models.Reminder, error)
}

// DefaultReminderService is the production implementation.
type DefaultReminderService struct {
	Repo      reminderRepo.ReminderRepository
	Scheduler scheduler.Engine

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *DefaultReminderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
