package triggerRepo

import (
	"context"

	"remindful/models"
)

// TriggerRepository persists the pending-alarm bookkeeping the alarm platform
// needs to cancel or replace queue tasks later.
type TriggerRepository interface {
	// Upsert records the pending trigger for (reminder, offset), replacing
	// any previous one.
	Upsert(ctx context.Context, t *models.ScheduledTrigger) error
	// ListByReminder retrieves every pending trigger for a reminder.
	ListByReminder(ctx context.Context, reminderID string) ([]models.ScheduledTrigger, error)
	// Delete drops one trigger row.
	Delete(ctx context.Context, reminderID string, offsetMillis int64) error
	// DeleteByReminder drops all trigger rows for a reminder.
	DeleteByReminder(ctx context.Context, reminderID string) error
}
