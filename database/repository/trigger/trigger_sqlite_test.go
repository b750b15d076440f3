package triggerRepo

import (
	"context"
	"database/sql"
	"testing"

	"remindful/database"
	"remindful/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteTriggerRepo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return NewSQLiteTriggerRepo(db)
}

func TestUpsertReplacesTheSlot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{
		ReminderID: "r1", OffsetMillis: 0, FireAt: 1_000, TaskID: "task-old",
	}))
	// Rescheduling the same slot replaces the row instead of stacking a second
	// pending task next to the first.
	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{
		ReminderID: "r1", OffsetMillis: 0, FireAt: 2_000, TaskID: "task-new",
	}))

	got, err := repo.ListByReminder(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2_000), got[0].FireAt)
	assert.Equal(t, "task-new", got[0].TaskID)
}

func TestListByReminderScopesRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r1", OffsetMillis: 0, FireAt: 10, TaskID: "a"}))
	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r1", OffsetMillis: 60_000, FireAt: 20, TaskID: "b"}))
	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r2", OffsetMillis: 0, FireAt: 30, TaskID: "c"}))

	got, err := repo.ListByReminder(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	empty, err := repo.ListByReminder(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteRemovesOneSlot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r1", OffsetMillis: 0, FireAt: 10, TaskID: "a"}))
	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r1", OffsetMillis: 60_000, FireAt: 20, TaskID: "b"}))

	require.NoError(t, repo.Delete(ctx, "r1", 0))

	got, err := repo.ListByReminder(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(60_000), got[0].OffsetMillis)

	// Absent slots delete silently.
	require.NoError(t, repo.Delete(ctx, "r1", 999))
}

func TestDeleteByReminderClearsEverything(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r1", OffsetMillis: 0, FireAt: 10, TaskID: "a"}))
	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r1", OffsetMillis: 60_000, FireAt: 20, TaskID: "b"}))
	require.NoError(t, repo.Upsert(ctx, &models.ScheduledTrigger{ReminderID: "r2", OffsetMillis: 0, FireAt: 30, TaskID: "c"}))

	require.NoError(t, repo.DeleteByReminder(ctx, "r1"))

	gone, err := repo.ListByReminder(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.ListByReminder(ctx, "r2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
