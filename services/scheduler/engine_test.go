package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"remindful/database"
	firestateRepo "remindful/database/repository/firestate"
	reminderRepo "remindful/database/repository/reminder"
	"remindful/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schedNow = time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)

type fakeAlarms struct {
	pending   map[string]map[int64]int64
	scheduled []models.ReminderPayload
}

func newFakeAlarms() *fakeAlarms {
	return &fakeAlarms{pending: make(map[string]map[int64]int64)}
}

func (f *fakeAlarms) ScheduleAt(_ context.Context, p models.ReminderPayload) error {
	m := f.pending[p.ReminderID]
	if m == nil {
		m = make(map[int64]int64)
		f.pending[p.ReminderID] = m
	}
	m[p.OffsetMillis] = p.FireAt
	f.scheduled = append(f.scheduled, p)
	return nil
}

func (f *fakeAlarms) CancelOne(_ context.Context, reminderID string, offsetMillis int64) error {
	delete(f.pending[reminderID], offsetMillis)
	return nil
}

func (f *fakeAlarms) CancelAll(_ context.Context, reminderID string) error {
	delete(f.pending, reminderID)
	return nil
}

func (f *fakeAlarms) PendingFireAts(_ context.Context, reminderID string) (map[int64]int64, error) {
	out := make(map[int64]int64, len(f.pending[reminderID]))
	for o, ts := range f.pending[reminderID] {
		out[o] = ts
	}
	return out, nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

type harness struct {
	engine     *DefaultEngine
	reminders  reminderRepo.ReminderRepository
	fireStates firestateRepo.FireStateRepository
	alarms     *fakeAlarms
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	h := &harness{
		reminders:  reminderRepo.NewSQLiteReminderRepo(db),
		fireStates: firestateRepo.NewSQLiteFireStateRepo(db),
		alarms:     newFakeAlarms(),
	}
	h.engine = &DefaultEngine{
		Reminders:  h.reminders,
		FireStates: h.fireStates,
		Alarms:     h.alarms,
		Now:        func() time.Time { return schedNow },
	}
	return h
}

func (h *harness) save(t *testing.T, r *models.Reminder) {
	t.Helper()
	require.NoError(t, h.reminders.Save(context.Background(), r))
}

func mkReminder(id, repeat string, event time.Time, offsets ...int64) *models.Reminder {
	return &models.Reminder{
		ID: id, Title: "title " + id, Timezone: "UTC", Repeat: repeat,
		EventAt: event.UnixMilli(), OffsetsMillis: offsets, Enabled: true, UpdatedAt: 5,
	}
}

func TestOnSavedSchedulesOnlyFutureOffsets(t *testing.T) {
	h := newHarness(t)
	event := schedNow.Add(22 * time.Hour)
	r := mkReminder("r1", models.RepeatNone, event, 0, int64(time.Hour/time.Millisecond), int64(25*time.Hour/time.Millisecond))

	require.NoError(t, h.engine.OnSaved(context.Background(), r))

	pending := h.alarms.pending["r1"]
	require.Len(t, pending, 2, "the 25h offset is already past due and must be dropped")
	assert.Equal(t, event.UnixMilli(), pending[0])
	assert.Equal(t, event.Add(-time.Hour).UnixMilli(), pending[int64(time.Hour/time.Millisecond)])
}

func TestOnSavedReplacesPreviousTriggers(t *testing.T) {
	h := newHarness(t)
	event := schedNow.Add(22 * time.Hour)
	r := mkReminder("r1", models.RepeatNone, event, 0)
	require.NoError(t, h.engine.OnSaved(context.Background(), r))

	r.EventAt = schedNow.Add(48 * time.Hour).UnixMilli()
	require.NoError(t, h.engine.OnSaved(context.Background(), r))

	pending := h.alarms.pending["r1"]
	require.Len(t, pending, 1)
	assert.Equal(t, r.EventAt, pending[0], "the stale trigger must be gone")
}

func TestOnSavedDisabledCancelsAndDropsFireState(t *testing.T) {
	h := newHarness(t)
	event := schedNow.Add(22 * time.Hour)
	r := mkReminder("r1", models.RepeatDaily, event, 0)
	require.NoError(t, h.engine.OnSaved(context.Background(), r))
	require.NoError(t, h.fireStates.Upsert(context.Background(), &models.FireState{
		ReminderID: "r1", OffsetMillis: 0, LastFiredAt: 42,
	}))

	r.Enabled = false
	require.NoError(t, h.engine.OnSaved(context.Background(), r))

	assert.Empty(t, h.alarms.pending["r1"])
	fs, err := h.fireStates.Get(context.Background(), "r1", 0)
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestOnSavedDeletedCancelsEverything(t *testing.T) {
	h := newHarness(t)
	r := mkReminder("r1", models.RepeatDaily, schedNow.Add(time.Hour), 0)
	require.NoError(t, h.engine.OnSaved(context.Background(), r))
	require.NotEmpty(t, h.alarms.pending["r1"])

	r.IsDeleted = true
	require.NoError(t, h.engine.OnSaved(context.Background(), r))
	assert.Empty(t, h.alarms.pending["r1"])
}

func TestOnSavedBadTimezoneLeavesUnscheduled(t *testing.T) {
	h := newHarness(t)
	r := mkReminder("r1", models.RepeatDaily, schedNow.Add(time.Hour), 0)
	r.Timezone = "Not/AZone"

	require.NoError(t, h.engine.OnSaved(context.Background(), r), "a broken rule is logged, never fatal")
	assert.Empty(t, h.alarms.pending["r1"])
}

func TestOnFiredMainEventEndsOneTime(t *testing.T) {
	h := newHarness(t)
	hour := int64(time.Hour / time.Millisecond)
	event := schedNow.Add(2 * time.Hour)
	r := mkReminder("r1", models.RepeatNone, event, 0, hour)
	h.save(t, r)
	require.NoError(t, h.engine.OnSaved(context.Background(), r))
	require.Len(t, h.alarms.pending["r1"], 2)

	fired, err := h.engine.OnFired(context.Background(), "r1", 0, event.UnixMilli())
	require.NoError(t, err)
	require.NotNil(t, fired, "the main-event fire still gets delivered")

	stored, err := h.reminders.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
	assert.True(t, stored.Terminal())
	assert.Greater(t, stored.UpdatedAt, int64(5), "ending a reminder is a real mutation")
	assert.Empty(t, h.alarms.pending["r1"], "remaining triggers are cancelled")

	fs, err := h.fireStates.Get(context.Background(), "r1", 0)
	require.NoError(t, err)
	assert.Nil(t, fs, "a terminal reminder keeps no fire state")
}

func TestOnFiredPreEventOffsetKeepsOneTimeAlive(t *testing.T) {
	h := newHarness(t)
	hour := int64(time.Hour / time.Millisecond)
	event := schedNow.Add(time.Hour)
	r := mkReminder("r1", models.RepeatNone, event, 0, hour)
	h.save(t, r)
	require.NoError(t, h.engine.OnSaved(context.Background(), r))

	fired, err := h.engine.OnFired(context.Background(), "r1", hour, event.Add(-time.Hour).UnixMilli())
	require.NoError(t, err)
	require.NotNil(t, fired)

	stored, err := h.reminders.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, stored.Enabled, "a pre-event fire must not end the reminder")

	pending := h.alarms.pending["r1"]
	assert.Equal(t, event.UnixMilli(), pending[0], "the main-event trigger stays pending")
	assert.NotContains(t, pending, hour, "a one-time pre-event offset has no next occurrence")

	fs, err := h.fireStates.Get(context.Background(), "r1", hour)
	require.NoError(t, err)
	require.NotNil(t, fs)
	assert.Equal(t, event.Add(-time.Hour).UnixMilli(), fs.LastFiredAt)
}

func TestOnFiredRecurringChainsNextOccurrence(t *testing.T) {
	h := newHarness(t)
	event := schedNow.Add(-2 * time.Hour) // today 10:00
	r := mkReminder("r1", models.RepeatDaily, event, 0)
	h.save(t, r)

	fired, err := h.engine.OnFired(context.Background(), "r1", 0, event.UnixMilli())
	require.NoError(t, err)
	require.NotNil(t, fired)

	assert.Equal(t, event.Add(24*time.Hour).UnixMilli(), h.alarms.pending["r1"][0])
}

func TestOnFiredEarlyDeliveryDoesNotRepeatTheOccurrence(t *testing.T) {
	h := newHarness(t)
	event := schedNow.Add(2 * time.Minute) // scheduled slightly ahead of now
	r := mkReminder("r1", models.RepeatDaily, event, 0)
	h.save(t, r)

	fired, err := h.engine.OnFired(context.Background(), "r1", 0, event.UnixMilli())
	require.NoError(t, err)
	require.NotNil(t, fired)

	assert.Equal(t, event.Add(24*time.Hour).UnixMilli(), h.alarms.pending["r1"][0],
		"an early fire must advance past the occurrence it was scheduled for")
}

func TestOnFiredRepairsSiblingOffsetWithNothingPending(t *testing.T) {
	h := newHarness(t)
	hour := int64(time.Hour / time.Millisecond)
	event := schedNow.Add(-2 * time.Hour)
	r := mkReminder("r1", models.RepeatDaily, event, 0, hour)
	h.save(t, r)

	// Nothing is pending for either offset; the fire arrives from a stale
	// trigger after the bookkeeping was lost.
	fired, err := h.engine.OnFired(context.Background(), "r1", 0, event.UnixMilli())
	require.NoError(t, err)
	require.NotNil(t, fired)

	next := event.Add(24 * time.Hour)
	pending := h.alarms.pending["r1"]
	assert.Equal(t, next.UnixMilli(), pending[0])
	assert.Equal(t, next.Add(-time.Hour).UnixMilli(), pending[hour], "the dead offset rejoins the series")
}

func TestOnFiredDropsAfterDeleteRace(t *testing.T) {
	h := newHarness(t)
	r := mkReminder("r1", models.RepeatDaily, schedNow.Add(-2*time.Hour), 0)
	r.IsDeleted = true
	h.save(t, r)

	fired, err := h.engine.OnFired(context.Background(), "r1", 0, schedNow.Add(-2*time.Hour).UnixMilli())
	require.NoError(t, err)
	assert.Nil(t, fired, "a fire that lost the delete race is dropped silently")

	fs, err := h.fireStates.Get(context.Background(), "r1", 0)
	require.NoError(t, err)
	assert.Nil(t, fs)
	assert.Empty(t, h.alarms.pending["r1"])
}

func TestOnFiredDropsRemovedOffset(t *testing.T) {
	h := newHarness(t)
	r := mkReminder("r1", models.RepeatDaily, schedNow.Add(-2*time.Hour), 0)
	h.save(t, r)

	fired, err := h.engine.OnFired(context.Background(), "r1", 999, schedNow.UnixMilli())
	require.NoError(t, err)
	assert.Nil(t, fired, "an offset edited away mid-flight no longer fires")
}

func TestOnFiredMissingReminderDropsSilently(t *testing.T) {
	h := newHarness(t)
	fired, err := h.engine.OnFired(context.Background(), "ghost", 0, schedNow.UnixMilli())
	require.NoError(t, err)
	assert.Nil(t, fired)
}

func TestRestoreAllSchedulesRecoversAndSkips(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	upcoming := mkReminder("upcoming", models.RepeatNone, schedNow.Add(22*time.Hour), 0)
	h.save(t, upcoming)

	missed := mkReminder("missed", models.RepeatDaily, schedNow.Add(-26*time.Hour), 0)
	h.save(t, missed)

	handled := mkReminder("handled", models.RepeatDaily, schedNow.Add(-26*time.Hour), 0)
	h.save(t, handled)
	lastTrigger := schedNow.Add(-2 * time.Hour).UnixMilli() // today's slot already fired
	require.NoError(t, h.fireStates.Upsert(ctx, &models.FireState{
		ReminderID: "handled", OffsetMillis: 0, LastFiredAt: lastTrigger,
	}))

	disabled := mkReminder("disabled", models.RepeatDaily, schedNow.Add(time.Hour), 0)
	disabled.Enabled = false
	h.save(t, disabled)

	tombstone := mkReminder("tombstone", models.RepeatDaily, schedNow.Add(time.Hour), 0)
	tombstone.IsDeleted = true
	h.save(t, tombstone)

	require.NoError(t, h.engine.RestoreAll(ctx))

	assert.Equal(t, upcoming.EventAt, h.alarms.pending["upcoming"][0])
	assert.Equal(t, lastTrigger, h.alarms.pending["missed"][0],
		"the elapsed, unrecorded trigger fires immediately at its original instant")
	assert.Equal(t, schedNow.Add(22*time.Hour).UnixMilli(), h.alarms.pending["handled"][0],
		"an already-delivered slot reschedules for the next occurrence")
	assert.Empty(t, h.alarms.pending["disabled"])
	assert.Empty(t, h.alarms.pending["tombstone"])
}
