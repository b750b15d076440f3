package reminder

import (
	"context"

	reminderRepo "remindful/database/repository/reminder"
	"remindful/models"
	"remindful/services/scheduler"
	"remindful/services/sync"
	"remindful/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// SyncDescriptor wires the reminder table into the sync engine. Pulled
// changes feed back into the scheduling engine so replicated edits move
// triggers the same way local edits do.
func SyncDescriptor(repo reminderRepo.ReminderRepository, sched scheduler.Engine) sync.Descriptor {
	return sync.Descriptor{
		Key:        "reminders",
		Direction:  sync.Bidirectional,
		Strategy:   sync.LatestUpdatedWins,
		Collection: "reminders",
		Adapter:    &syncAdapter{repo: repo},

		ToRemote:   reminderToDoc,
		FromRemote: reminderFromDoc,

		LocalID:   func(local any) string { return local.(*models.Reminder).ID },
		UpdatedAt: func(local any) int64 { return local.(*models.Reminder).UpdatedAt },
		IsDeleted: func(local any) bool { return local.(*models.Reminder).IsDeleted },
		Enabled:   func(local any) bool { return local.(*models.Reminder).Enabled },
		Terminal:  func(local any) bool { return local.(*models.Reminder).Terminal() },

		OnApplied: func(ctx context.Context, upserted []any, deletedIDs []string) {
			logger := utils.GetLogger()
			for _, row := range upserted {
				r := row.(*models.Reminder)
				if err := sched.OnSaved(ctx, r); err != nil {
					logger.Error("Failed to reschedule replicated reminder",
						zap.String("reminder", r.ID), zap.Error(err))
				}
			}
			for _, id := range deletedIDs {
				if err := sched.OnDeleted(ctx, id); err != nil {
					logger.Error("Failed to cancel triggers for replicated deletion",
						zap.String("reminder", id), zap.Error(err))
				}
			}
		},
	}
}

// syncAdapter boxes reminder rows across the type-erased engine boundary.
type syncAdapter struct {
	repo reminderRepo.ReminderRepository
}

func (a *syncAdapter) LocalsChangedAfter(ctx context.Context, updatedAfter *int64) ([]any, error) {
	rows, err := a.repo.ChangedAfter(ctx, updatedAfter)
	if err != nil {
		return nil, err
	}
	boxed := make([]any, len(rows))
	for i := range rows {
		boxed[i] = &rows[i]
	}
	return boxed, nil
}

func (a *syncAdapter) UpsertAll(ctx context.Context, items []any) error {
	rows := make([]models.Reminder, 0, len(items))
	for _, item := range items {
		rows = append(rows, *(item.(*models.Reminder)))
	}
	return a.repo.UpsertAll(ctx, rows)
}

func (a *syncAdapter) MarkDeletedByIDs(ctx context.Context, ids []string) error {
	return a.repo.MarkDeletedByIDs(ctx, ids)
}

func (a *syncAdapter) LocalUpdatedAt(ctx context.Context, id string) (*int64, error) {
	return a.repo.UpdatedAtByID(ctx, id)
}

func (a *syncAdapter) IsLocalDeleted(ctx context.Context, id string) (bool, error) {
	return a.repo.IsDeleted(ctx, id)
}

func reminderToDoc(local any, uid string) (bson.M, error) {
	r := local.(*models.Reminder)
	return bson.M{
		"uid":           uid,
		"id":            r.ID,
		"title":         r.Title,
		"notes":         r.Notes,
		"eventAt":       r.EventAt,
		"timezone":      r.Timezone,
		"repeat":        r.Repeat,
		"offsetsMillis": r.OffsetsMillis,
		"backgroundRef": r.BackgroundRef,
		"enabled":       r.Enabled,
		"isDeleted":     r.IsDeleted,
		"updatedAt":     r.UpdatedAt,
	}, nil
}

// reminderFromDoc maps a remote document onto a local row. It never fails:
// fields it cannot read fall back to zero values so a malformed document
// still lands as a row carrying its id.
func reminderFromDoc(id string, doc bson.M) any {
	r := &models.Reminder{
		ID:            id,
		Title:         asString(doc["title"]),
		Notes:         asString(doc["notes"]),
		Timezone:      asString(doc["timezone"]),
		Repeat:        asString(doc["repeat"]),
		OffsetsMillis: asInt64Slice(doc["offsetsMillis"]),
		BackgroundRef: asString(doc["backgroundRef"]),
		Enabled:       asBool(doc["enabled"], true),
	}
	if ts, ok := sync.NormalizeEpochMillis(doc["eventAt"]); ok {
		r.EventAt = ts
	}
	if ts, ok := sync.NormalizeEpochMillis(doc["updatedAt"]); ok {
		r.UpdatedAt = ts
	}
	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asInt64Slice(v any) []int64 {
	items, ok := v.(bson.A)
	if !ok {
		if native, isNative := v.([]int64); isNative {
			return native
		}
		return nil
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if n, ok := asInt64(item); ok {
			out = append(out, n)
		}
	}
	return out
}
