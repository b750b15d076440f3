package scheduler

import (
	"context"
	"fmt"
	"time"

	firestateRepo "remindful/database/repository/firestate"
	reminderRepo "remindful/database/repository/reminder"
	"remindful/models"
	"remindful/utils"

	"go.uber.org/zap"
)

// Engine keeps the alarm platform consistent with reminder lifecycle events.
// A reminder is Active-Recurring, Active-OneTime, or terminal (disabled, or a
// one-time whose main event already fired); only active reminders hold
// pending triggers.
type Engine interface {
	// OnSaved reacts to a created or updated reminder: cancel everything it
	// had pending, then schedule the still-future triggers of its next
	// occurrence. Past-due offsets are dropped silently. A disabled or
	// deleted reminder just loses its triggers and fire state.
	OnSaved(ctx context.Context, r *models.Reminder) error
	// OnDeleted clears all trigger and fire state for an id, for callers
	// that only hold the id.
	OnDeleted(ctx context.Context, reminderID string) error
	// OnFired handles one delivered trigger: records the fire, ends a
	// one-time reminder on its main-event fire, and chains the next
	// occurrence otherwise. Returns the reminder to notify for, or nil when
	// the fire lost a race with delete/disable and must be dropped.
	OnFired(ctx context.Context, reminderID string, offsetMillis, firedAt int64) (*models.Reminder, error)
	// RestoreAll rebuilds every enabled reminder's triggers from the local
	// store, firing elapsed triggers that have no delivery record
	// (missed-fire recovery).
	RestoreAll(ctx context.Context) error
}

// DefaultEngine implements Engine.
type DefaultEngine struct {
	Reminders  reminderRepo.ReminderRepository
	FireStates firestateRepo.FireStateRepository
	Alarms     AlarmPlatform

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *DefaultEngine) OnSaved(ctx context.Context, r *models.Reminder) error {
	if err := s.Alarms.CancelAll(ctx, r.ID); err != nil {
		return fmt.Errorf("failed to cancel triggers for %s: %w", r.ID, err)
	}
	if r.IsDeleted || !r.Enabled {
		return s.FireStates.DeleteByReminder(ctx, r.ID)
	}

	logger := utils.GetLogger()
	now := s.now().UnixMilli()

	occ, ok, err := nextOccurrenceAfter(r, now)
	if err != nil {
		logger.Warn("Next occurrence computation failed; leaving reminder unscheduled",
			zap.String("reminder", r.ID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	for _, offset := range r.OffsetsMillis {
		fireAt := occ - offset
		if fireAt <= now {
			continue
		}
		if err := s.Alarms.ScheduleAt(ctx, payloadFor(r, offset, fireAt)); err != nil {
			return fmt.Errorf("failed to schedule trigger for %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *DefaultEngine) OnDeleted(ctx context.Context, reminderID string) error {
	if err := s.Alarms.CancelAll(ctx, reminderID); err != nil {
		return fmt.Errorf("failed to cancel triggers for %s: %w", reminderID, err)
	}
	return s.FireStates.DeleteByReminder(ctx, reminderID)
}

func (s *DefaultEngine) OnFired(ctx context.Context, reminderID string, offsetMillis, firedAt int64) (*models.Reminder, error) {
	r, err := s.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fired reminder %s: %w", reminderID, err)
	}
	if r == nil || r.IsDeleted || !r.Enabled || !containsOffset(r.OffsetsMillis, offsetMillis) {
		// The trigger lost a race with a delete, disable or edit.
		_ = s.Alarms.CancelOne(ctx, reminderID, offsetMillis)
		return nil, nil
	}

	if err := s.FireStates.Upsert(ctx, &models.FireState{
		ReminderID: reminderID, OffsetMillis: offsetMillis, LastFiredAt: firedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to record fire state for %s: %w", reminderID, err)
	}
	if err := s.Alarms.CancelOne(ctx, reminderID, offsetMillis); err != nil {
		return nil, fmt.Errorf("failed to clear consumed trigger for %s: %w", reminderID, err)
	}

	// A one-time reminder ends on its main-event fire. Pre-event offsets
	// never end it.
	if !r.Repeating() && offsetMillis == 0 {
		r.Enabled = false
		r.TouchUpdatedAt(s.now())
		if err := s.Reminders.Save(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to retire one-time reminder %s: %w", reminderID, err)
		}
		if err := s.Alarms.CancelAll(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("failed to cancel remaining triggers for %s: %w", reminderID, err)
		}
		if err := s.FireStates.DeleteByReminder(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("failed to drop fire state for %s: %w", reminderID, err)
		}
		return r, nil
	}

	s.rescheduleAfterFire(ctx, r, offsetMillis, firedAt)
	return r, nil
}

// rescheduleAfterFire chains the fired offset onto its next occurrence and
// repairs any sibling offset that has nothing pending. The fired offset
// advances strictly past the occurrence it just fired for, so an early
// delivery cannot double-fire the same instance.
func (s *DefaultEngine) rescheduleAfterFire(ctx context.Context, r *models.Reminder, firedOffset, firedAt int64) {
	logger := utils.GetLogger()
	now := s.now().UnixMilli()
	firedOcc := firedAt + firedOffset

	pending, err := s.Alarms.PendingFireAts(ctx, r.ID)
	if err != nil {
		logger.Warn("Could not read pending triggers", zap.String("reminder", r.ID), zap.Error(err))
		pending = map[int64]int64{}
	}

	for _, offset := range r.OffsetsMillis {
		if fireAt, ok := pending[offset]; ok && fireAt > now {
			continue
		}
		after := now + offset
		if offset == firedOffset && firedOcc > after {
			after = firedOcc
		}
		occ, ok, err := nextOccurrenceAfter(r, after)
		if err != nil {
			logger.Warn("Next occurrence computation failed; leaving reminder unscheduled",
				zap.String("reminder", r.ID), zap.Error(err))
			return
		}
		if !ok {
			continue
		}
		if err := s.Alarms.ScheduleAt(ctx, payloadFor(r, offset, occ-offset)); err != nil {
			logger.Error("Failed to schedule trigger",
				zap.String("reminder", r.ID), zap.Int64("offset", offset), zap.Error(err))
		}
	}
}

func (s *DefaultEngine) RestoreAll(ctx context.Context) error {
	logger := utils.GetLogger()

	reminders, err := s.Reminders.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list enabled reminders: %w", err)
	}

	now := s.now().UnixMilli()
	var scheduled, recovered int
	for i := range reminders {
		sch, rec, err := s.restoreOne(ctx, &reminders[i], now)
		if err != nil {
			logger.Warn("Failed to restore reminder triggers",
				zap.String("reminder", reminders[i].ID), zap.Error(err))
			continue
		}
		scheduled += sch
		recovered += rec
	}

	logger.Info("Trigger restore finished",
		zap.Int("reminders", len(reminders)),
		zap.Int("scheduled", scheduled),
		zap.Int("recovered", recovered),
	)
	return nil
}

func (s *DefaultEngine) restoreOne(ctx context.Context, r *models.Reminder, now int64) (scheduled, recovered int, err error) {
	if err := s.Alarms.CancelAll(ctx, r.ID); err != nil {
		return 0, 0, err
	}

	for _, offset := range r.OffsetsMillis {
		// Missed-fire recovery: the last elapsed trigger with no delivery
		// record at or after it fires immediately; its handler chains the
		// next occurrence.
		prev, ok, err := prevOccurrenceAtOrBefore(r, now+offset)
		if err != nil {
			return scheduled, recovered, err
		}
		if ok {
			trigger := prev - offset
			fs, err := s.FireStates.Get(ctx, r.ID, offset)
			if err != nil {
				return scheduled, recovered, err
			}
			if fs == nil || fs.LastFiredAt < trigger {
				if err := s.Alarms.ScheduleAt(ctx, payloadFor(r, offset, trigger)); err != nil {
					return scheduled, recovered, err
				}
				recovered++
				continue
			}
		}

		occ, ok, err := nextOccurrenceAfter(r, now+offset)
		if err != nil {
			return scheduled, recovered, err
		}
		if !ok {
			continue
		}
		if err := s.Alarms.ScheduleAt(ctx, payloadFor(r, offset, occ-offset)); err != nil {
			return scheduled, recovered, err
		}
		scheduled++
	}
	return scheduled, recovered, nil
}

func (s *DefaultEngine) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func payloadFor(r *models.Reminder, offsetMillis, fireAt int64) models.ReminderPayload {
	return models.ReminderPayload{
		ReminderID:   r.ID,
		OffsetMillis: offsetMillis,
		Title:        r.Title,
		Body:         r.Notes,
		FireAt:       fireAt,
	}
}

func containsOffset(offsets []int64, offset int64) bool {
	for _, o := range offsets {
		if o == offset {
			return true
		}
	}
	return false
}
