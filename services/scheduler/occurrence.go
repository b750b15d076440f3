package scheduler

import (
	"fmt"
	"time"

	"remindful/models"
)

// Occurrence math walks a reminder's event series in its own timezone, so a
// "daily at 09:00" reminder stays at 09:00 wall clock across DST shifts.
// Monthly and yearly series clamp the anchor's day-of-month into short months
// (an event on the 31st lands on Feb 28th, then returns to the 31st in
// March).

const maxOccurrenceWalk = 512

// nextOccurrenceAfter returns the first occurrence strictly after the given
// epoch-millis instant. ok is false when the series has ended (a one-time
// event in the past) or the walk failed.
func nextOccurrenceAfter(r *models.Reminder, after int64) (int64, bool, error) {
	if !r.Repeating() {
		if r.EventAt > after {
			return r.EventAt, true, nil
		}
		return 0, false, nil
	}

	anchor, err := anchorTime(r)
	if err != nil {
		return 0, false, err
	}
	occ, _, ok := firstAfter(anchor, r.Repeat, after)
	if !ok {
		return 0, false, fmt.Errorf("occurrence walk for %s exceeded %d steps", r.ID, maxOccurrenceWalk)
	}
	return occ.UnixMilli(), true, nil
}

// prevOccurrenceAtOrBefore returns the latest occurrence at or before the
// given instant. ok is false when the series starts after it.
func prevOccurrenceAtOrBefore(r *models.Reminder, atOrBefore int64) (int64, bool, error) {
	if r.EventAt > atOrBefore {
		return 0, false, nil
	}
	if !r.Repeating() {
		return r.EventAt, true, nil
	}

	anchor, err := anchorTime(r)
	if err != nil {
		return 0, false, err
	}
	_, n, ok := firstAfter(anchor, r.Repeat, atOrBefore)
	if !ok {
		return 0, false, fmt.Errorf("occurrence walk for %s exceeded %d steps", r.ID, maxOccurrenceWalk)
	}
	// The anchor itself is at or before the instant, so n >= 1 here.
	return occurrenceAt(anchor, r.Repeat, n-1).UnixMilli(), true, nil
}

func anchorTime(r *models.Reminder) (time.Time, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("reminder %s has unusable timezone %q: %w", r.ID, r.Timezone, err)
	}
	return time.UnixMilli(r.EventAt).In(loc), nil
}

// firstAfter finds the smallest n whose occurrence lies strictly after the
// instant. The initial estimate deliberately undershoots; the walk closes the
// remaining gap (DST drift, short months).
func firstAfter(anchor time.Time, repeat string, after int64) (time.Time, int, bool) {
	n := initialStep(anchor, repeat, after)
	for i := 0; i < maxOccurrenceWalk; i++ {
		occ := occurrenceAt(anchor, repeat, n)
		if occ.UnixMilli() > after {
			return occ, n, true
		}
		n++
	}
	return time.Time{}, 0, false
}

// occurrenceAt computes occurrence n of the series, n=0 being the anchor.
// Steps always derive from the anchor, never from the previous occurrence, so
// clamped months do not corrupt the rest of the series.
func occurrenceAt(anchor time.Time, repeat string, n int) time.Time {
	switch repeat {
	case models.RepeatDaily:
		return anchor.AddDate(0, 0, n)
	case models.RepeatWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case models.RepeatMonthly:
		return addMonthsClamped(anchor, n)
	case models.RepeatYearly:
		return addMonthsClamped(anchor, 12*n)
	default:
		return anchor
	}
}

func initialStep(anchor time.Time, repeat string, after int64) int {
	delta := after - anchor.UnixMilli()
	if delta <= 0 {
		return 0
	}
	var period int64
	switch repeat {
	case models.RepeatDaily:
		period = 24 * 60 * 60 * 1000
	case models.RepeatWeekly:
		period = 7 * 24 * 60 * 60 * 1000
	case models.RepeatMonthly:
		period = 31 * 24 * 60 * 60 * 1000
	case models.RepeatYearly:
		period = 366 * 24 * 60 * 60 * 1000
	default:
		return 0
	}
	// Two periods of slack absorb wall-clock drift around the estimate.
	n := delta/period - 2
	if n < 0 {
		return 0
	}
	return int(n)
}

func addMonthsClamped(anchor time.Time, months int) time.Time {
	// Let time.Date normalize the month arithmetic on day 1, then clamp the
	// anchor's day into the target month.
	first := time.Date(anchor.Year(), anchor.Month()+time.Month(months), 1,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
	day := anchor.Day()
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
