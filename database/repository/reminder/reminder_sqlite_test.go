package reminderRepo

import (
	"context"
	"database/sql"
	"testing"

	"remindful/database"
	"remindful/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteReminderRepo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return NewSQLiteReminderRepo(db)
}

func seedReminder(id string, updatedAt int64) models.Reminder {
	return models.Reminder{
		ID:            id,
		Title:         "water the plants",
		Notes:         "the ficus first",
		EventAt:       1_700_000_000_000,
		Timezone:      "Europe/Berlin",
		Repeat:        models.RepeatWeekly,
		OffsetsMillis: []int64{0, 3_600_000},
		Enabled:       true,
		UpdatedAt:     updatedAt,
	}
}

func TestSaveRoundTripsAllColumns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := seedReminder("r1", 100)
	want.BackgroundRef = "bg/ocean.png"
	require.NoError(t, repo.Save(ctx, &want))

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	// Save again with changed fields; the row is replaced, not duplicated.
	want.Title = "water the plants twice"
	want.OffsetsMillis = []int64{0}
	want.UpdatedAt = 200
	require.NoError(t, repo.Save(ctx, &want))

	got, err = repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListsFilterTombstonesAndDisabled(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	live := seedReminder("live", 10)
	disabled := seedReminder("disabled", 20)
	disabled.Enabled = false
	dead := seedReminder("dead", 30)
	dead.IsDeleted = true
	require.NoError(t, repo.UpsertAll(ctx, []models.Reminder{live, disabled, dead}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "live", enabled[0].ID)

	// Tombstones stay reachable by id.
	got, err := repo.GetByID(ctx, "dead")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted)
}

func TestChangedAfterHonorsWatermark(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []models.Reminder{
		seedReminder("a", 100),
		seedReminder("b", 200),
		seedReminder("c", 300),
	}))

	// No watermark: everything, oldest first.
	all, err := repo.ChangedAfter(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	// The watermark is exclusive: a row at exactly 200 is already synced.
	after := int64(200)
	changed, err := repo.ChangedAfter(ctx, &after)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "c", changed[0].ID)

	past := int64(999)
	changed, err = repo.ChangedAfter(ctx, &past)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestUpsertAllInsertsAndUpdatesTogether(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Reminder{ID: "a", Title: "old", UpdatedAt: 1, OffsetsMillis: []int64{0}}))

	fresh := seedReminder("b", 50)
	replaced := seedReminder("a", 60)
	replaced.Title = "new"
	require.NoError(t, repo.UpsertAll(ctx, []models.Reminder{replaced, fresh}))

	a, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", a.Title)
	assert.Equal(t, int64(60), a.UpdatedAt)

	b, err := repo.GetByID(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, b)

	// Empty batches are a no-op, not an error.
	require.NoError(t, repo.UpsertAll(ctx, nil))
}

func TestMarkDeletedByIDsTouchesOnlyTheFlag(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	r := seedReminder("r1", 500)
	require.NoError(t, repo.Save(ctx, &r))
	require.NoError(t, repo.Save(ctx, &models.Reminder{ID: "r2", UpdatedAt: 600, OffsetsMillis: []int64{0}}))

	require.NoError(t, repo.MarkDeletedByIDs(ctx, []string{"r1", "missing"}))

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	// The flag flip must not look like a local edit.
	assert.Equal(t, int64(500), got.UpdatedAt)
	assert.Equal(t, r.Title, got.Title)

	other, err := repo.GetByID(ctx, "r2")
	require.NoError(t, err)
	assert.False(t, other.IsDeleted)

	require.NoError(t, repo.MarkDeletedByIDs(ctx, nil))
}

func TestUpdatedAtByIDAndIsDeleted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	r := seedReminder("r1", 777)
	r.IsDeleted = true
	require.NoError(t, repo.Save(ctx, &r))

	ts, err := repo.UpdatedAtByID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, int64(777), *ts)

	ts, err = repo.UpdatedAtByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, ts)

	deleted, err := repo.IsDeleted(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.IsDeleted(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTombstoneScanAndHardDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := seedReminder("old", 100)
	old.IsDeleted = true
	edge := seedReminder("edge", 200)
	edge.IsDeleted = true
	fresh := seedReminder("fresh", 300)
	fresh.IsDeleted = true
	alive := seedReminder("alive", 50)
	require.NoError(t, repo.UpsertAll(ctx, []models.Reminder{old, edge, fresh, alive}))

	// Strictly before the cutoff; the edge row survives this round.
	ids, err := repo.TombstoneIDsBefore(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)

	deleted, err := repo.HardDeleteByIDs(ctx, []string{"old", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err := repo.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = repo.HardDeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
