package firestateRepo

import (
	"context"

	"remindful/models"
)

// FireStateRepository persists the last delivery time of each trigger,
// keyed by reminder id and offset.
type FireStateRepository interface {
	// Get retrieves the fire state for one trigger. Returns nil when the
	// trigger has never fired.
	Get(ctx context.Context, reminderID string, offsetMillis int64) (*models.FireState, error)
	// Upsert records a delivery.
	Upsert(ctx context.Context, fs *models.FireState) error
	// DeleteByReminder drops all fire state for a reminder.
	DeleteByReminder(ctx context.Context, reminderID string) error
}
