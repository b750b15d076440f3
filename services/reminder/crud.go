package reminder

import (
	"context"
	"fmt"
	"time"

	"remindful/models"
	"remindful/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultReminderService) Create(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if len(r.OffsetsMillis) == 0 {
		r.OffsetsMillis = []int64{0}
	}
	r.Enabled = true
	r.IsDeleted = false
	if err := validate(r); err != nil {
		return nil, err
	}

	r.TouchUpdatedAt(s.now())
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}
	if err := s.Scheduler.OnSaved(ctx, r); err != nil {
		utils.GetLogger().Error("Failed to schedule new reminder",
			zap.String("reminder", r.ID), zap.Error(err))
	}
	return r, nil
}

func (s *DefaultReminderService) Update(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	existing, err := s.Repo.GetByID(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminder %s: %w", r.ID, err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.IsDeleted {
		return nil, ErrDeleted
	}
	if len(r.OffsetsMillis) == 0 {
		r.OffsetsMillis = []int64{0}
	}
	r.IsDeleted = false
	if err := validate(r); err != nil {
		return nil, err
	}

	// Start from the stored updatedAt so the bump is strictly increasing
	// even against a client-supplied stale copy.
	r.UpdatedAt = existing.UpdatedAt
	r.TouchUpdatedAt(s.now())
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save reminder %s: %w", r.ID, err)
	}
	if err := s.Scheduler.OnSaved(ctx, r); err != nil {
		utils.GetLogger().Error("Failed to reschedule updated reminder",
			zap.String("reminder", r.ID), zap.Error(err))
	}
	return r, nil
}

func (s *DefaultReminderService) SetEnabled(ctx context.Context, id string, enabled bool) (*models.Reminder, error) {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminder %s: %w", id, err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if existing.IsDeleted {
		return nil, ErrDeleted
	}
	if existing.Enabled == enabled {
		return existing, nil
	}

	existing.Enabled = enabled
	existing.TouchUpdatedAt(s.now())
	if err := s.Repo.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to save reminder %s: %w", id, err)
	}
	if err := s.Scheduler.OnSaved(ctx, existing); err != nil {
		utils.GetLogger().Error("Failed to apply enable toggle to triggers",
			zap.String("reminder", id), zap.Error(err))
	}
	return existing, nil
}

func (s *DefaultReminderService) Delete(ctx context.Context, id string) error {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch reminder %s: %w", id, err)
	}
	if existing == nil || existing.IsDeleted {
		return nil
	}

	// A user deletion bumps updatedAt so the tombstone wins everywhere on
	// the next replication pass. Replicated deletions arrive through the
	// sync adapter instead and leave updatedAt alone.
	existing.IsDeleted = true
	existing.TouchUpdatedAt(s.now())
	if err := s.Repo.Save(ctx, existing); err != nil {
		return fmt.Errorf("failed to tombstone reminder %s: %w", id, err)
	}
	if err := s.Scheduler.OnDeleted(ctx, id); err != nil {
		utils.GetLogger().Error("Failed to cancel triggers for deleted reminder",
			zap.String("reminder", id), zap.Error(err))
	}
	return nil
}

func (s *DefaultReminderService) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	r, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminder %s: %w", id, err)
	}
	if r == nil || r.IsDeleted {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *DefaultReminderService) List(ctx context.Context) ([]models.Reminder, error) {
	items, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return items, nil
}

func validate(r *models.Reminder) error {
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if r.EventAt <= 0 {
		return fmt.Errorf("%w: eventAt must be a positive epoch-millis instant", ErrInvalid)
	}
	switch r.Repeat {
	case "", models.RepeatNone, models.RepeatDaily, models.RepeatWeekly, models.RepeatMonthly, models.RepeatYearly:
	default:
		return fmt.Errorf("%w: unknown repeat rule %q", ErrInvalid, r.Repeat)
	}
	if r.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalid)
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return fmt.Errorf("%w: unusable timezone %q", ErrInvalid, r.Timezone)
	}
	for _, offset := range r.OffsetsMillis {
		if offset < 0 {
			return fmt.Errorf("%w: offsets must be non-negative", ErrInvalid)
		}
	}
	return nil
}
