package cron

import (
	"context"
	"errors"
	"fmt"

	triggerRepo "remindful/database/repository/trigger"
	"remindful/models"
	"remindful/services/tasks"
	"remindful/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const fireQueue = "default"

// AsynqAlarmPlatform schedules delayed fire tasks on the queue and mirrors
// every pending trigger into the trigger table. The table is the source of
// truth for what is pending: queue task ids embed the fire instant, so the
// table is what maps a (reminder, offset) slot back to its live task.
type AsynqAlarmPlatform struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	Triggers  triggerRepo.TriggerRepository
}

func NewAlarmPlatform(client *asynq.Client, inspector *asynq.Inspector, triggers triggerRepo.TriggerRepository) *AsynqAlarmPlatform {
	return &AsynqAlarmPlatform{Client: client, Inspector: inspector, Triggers: triggers}
}

func (a *AsynqAlarmPlatform) ScheduleAt(ctx context.Context, p models.ReminderPayload) error {
	// One pending task per slot: drop whatever the slot held before.
	if err := a.CancelOne(ctx, p.ReminderID, p.OffsetMillis); err != nil {
		return err
	}

	task, opts, err := tasks.NewFireTask(p)
	if err != nil {
		return fmt.Errorf("failed to build fire task for %s: %w", p.ReminderID, err)
	}
	if _, err := a.Client.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("failed to enqueue fire task for %s: %w", p.ReminderID, err)
	}

	return a.Triggers.Upsert(ctx, &models.ScheduledTrigger{
		ReminderID:   p.ReminderID,
		OffsetMillis: p.OffsetMillis,
		FireAt:       p.FireAt,
		TaskID:       tasks.FireTaskID(p.ReminderID, p.OffsetMillis, p.FireAt),
	})
}

func (a *AsynqAlarmPlatform) CancelOne(ctx context.Context, reminderID string, offsetMillis int64) error {
	rows, err := a.Triggers.ListByReminder(ctx, reminderID)
	if err != nil {
		return fmt.Errorf("failed to list triggers for %s: %w", reminderID, err)
	}
	for _, row := range rows {
		if row.OffsetMillis != offsetMillis {
			continue
		}
		a.deleteTask(row.TaskID)
		return a.Triggers.Delete(ctx, reminderID, offsetMillis)
	}
	return nil
}

func (a *AsynqAlarmPlatform) CancelAll(ctx context.Context, reminderID string) error {
	rows, err := a.Triggers.ListByReminder(ctx, reminderID)
	if err != nil {
		return fmt.Errorf("failed to list triggers for %s: %w", reminderID, err)
	}
	for _, row := range rows {
		a.deleteTask(row.TaskID)
	}
	return a.Triggers.DeleteByReminder(ctx, reminderID)
}

func (a *AsynqAlarmPlatform) PendingFireAts(ctx context.Context, reminderID string) (map[int64]int64, error) {
	rows, err := a.Triggers.ListByReminder(ctx, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers for %s: %w", reminderID, err)
	}
	pending := make(map[int64]int64, len(rows))
	for _, row := range rows {
		pending[row.OffsetMillis] = row.FireAt
	}
	return pending, nil
}

// deleteTask removes a task from the queue if it is still there. A task mid-
// delivery cannot be deleted; the queue retires it itself when its handler
// returns, so only the bookkeeping row matters then.
func (a *AsynqAlarmPlatform) deleteTask(taskID string) {
	err := a.Inspector.DeleteTask(fireQueue, taskID)
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return
	}
	utils.GetLogger().Warn("Could not delete queued fire task",
		zap.String("task", taskID), zap.Error(err))
}
