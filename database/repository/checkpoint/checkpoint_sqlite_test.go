package checkpointRepo

import (
	"context"
	"database/sql"
	"testing"

	"remindful/database"
	"remindful/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteCheckpointRepo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return NewSQLiteCheckpointRepo(db)
}

func TestGetMissingCheckpointReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	cp, err := repo.Get(context.Background(), "reminders")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestUpsertRoundTripsNullableWatermarks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// A first run persists with both watermarks unset.
	require.NoError(t, repo.Upsert(ctx, &models.SyncCheckpoint{Key: "reminders"}))

	cp, err := repo.Get(ctx, "reminders")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "reminders", cp.Key)
	assert.Nil(t, cp.LastLocalSyncAt)
	assert.Nil(t, cp.LastRemoteSyncAt)

	// Watermarks advance independently.
	local := int64(1_000)
	require.NoError(t, repo.Upsert(ctx, &models.SyncCheckpoint{Key: "reminders", LastLocalSyncAt: &local}))

	cp, err = repo.Get(ctx, "reminders")
	require.NoError(t, err)
	require.NotNil(t, cp.LastLocalSyncAt)
	assert.Equal(t, int64(1_000), *cp.LastLocalSyncAt)
	assert.Nil(t, cp.LastRemoteSyncAt)

	remote := int64(2_000)
	local = 1_500
	require.NoError(t, repo.Upsert(ctx, &models.SyncCheckpoint{
		Key:              "reminders",
		LastLocalSyncAt:  &local,
		LastRemoteSyncAt: &remote,
	}))

	cp, err = repo.Get(ctx, "reminders")
	require.NoError(t, err)
	assert.Equal(t, int64(1_500), *cp.LastLocalSyncAt)
	assert.Equal(t, int64(2_000), *cp.LastRemoteSyncAt)
}

func TestCheckpointsAreScopedByKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	local := int64(42)
	require.NoError(t, repo.Upsert(ctx, &models.SyncCheckpoint{Key: "reminders", LastLocalSyncAt: &local}))

	other, err := repo.Get(ctx, "labels")
	require.NoError(t, err)
	assert.Nil(t, other)
}
