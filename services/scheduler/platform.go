package scheduler

import (
	"context"

	"remindful/models"
)

// AlarmPlatform is the timed-trigger backend the engine schedules against.
// Implementations own the task bookkeeping: at most one trigger may be
// pending per (reminder, offset), a FireAt in the past means "run as soon as
// possible", and cancelling an unknown trigger is a no-op.
type AlarmPlatform interface {
	// ScheduleAt registers (or replaces) the pending trigger for the
	// payload's (reminder, offset).
	ScheduleAt(ctx context.Context, p models.ReminderPayload) error
	// CancelOne removes the pending trigger for one offset.
	CancelOne(ctx context.Context, reminderID string, offsetMillis int64) error
	// CancelAll removes every pending trigger for a reminder.
	CancelAll(ctx context.Context, reminderID string) error
	// PendingFireAts reports the pending triggers for a reminder, keyed by
	// offset.
	PendingFireAts(ctx context.Context, reminderID string) (map[int64]int64, error)
}
