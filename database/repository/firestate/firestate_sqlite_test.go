package firestateRepo

import (
	"context"
	"database/sql"
	"testing"

	"remindful/database"
	"remindful/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteFireStateRepo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return NewSQLiteFireStateRepo(db)
}

func TestUpsertOverwritesLastFiredAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r1", OffsetMillis: 0, LastFiredAt: 100}))
	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r1", OffsetMillis: 0, LastFiredAt: 200}))

	fs, err := repo.Get(ctx, "r1", 0)
	require.NoError(t, err)
	require.NotNil(t, fs)
	assert.Equal(t, int64(200), fs.LastFiredAt)
}

func TestFireStatesAreKeyedPerOffset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r1", OffsetMillis: 0, LastFiredAt: 100}))
	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r1", OffsetMillis: 3_600_000, LastFiredAt: 50}))

	fs, err := repo.Get(ctx, "r1", 3_600_000)
	require.NoError(t, err)
	require.NotNil(t, fs)
	assert.Equal(t, int64(50), fs.LastFiredAt)

	missing, err := repo.Get(ctx, "r1", 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteByReminderScopesToOneReminder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r1", OffsetMillis: 0, LastFiredAt: 100}))
	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r1", OffsetMillis: 60_000, LastFiredAt: 100}))
	require.NoError(t, repo.Upsert(ctx, &models.FireState{ReminderID: "r2", OffsetMillis: 0, LastFiredAt: 300}))

	require.NoError(t, repo.DeleteByReminder(ctx, "r1"))

	gone, err := repo.Get(ctx, "r1", 0)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.Get(ctx, "r2", 0)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, int64(300), kept.LastFiredAt)

	// Deleting an unknown reminder is a no-op.
	require.NoError(t, repo.DeleteByReminder(ctx, "ghost"))
}
