// File: remindful/models/reminder.go
package models

import "time"

// Repeat rules for a reminder's event.
const (
	RepeatNone    = "none"
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
	RepeatYearly  = "yearly"
)

// Reminder is the canonical reminder record, shared by the local store and
// the remote document store. Timestamps are epoch milliseconds.
type Reminder struct {
	ID            string  `bson:"id" json:"id"`
	Title         string  `bson:"title" json:"title"`
	Notes         string  `bson:"notes,omitempty" json:"notes,omitempty"`
	EventAt       int64   `bson:"eventAt" json:"eventAt"`
	Timezone      string  `bson:"timezone" json:"timezone"` // IANA zone name
	Repeat        string  `bson:"repeat" json:"repeat"`
	OffsetsMillis []int64 `bson:"offsetsMillis" json:"offsetsMillis"` // 0 = the event instant
	BackgroundRef string  `bson:"backgroundRef,omitempty" json:"backgroundRef,omitempty"`
	Enabled       bool    `bson:"enabled" json:"enabled"`
	IsDeleted     bool    `bson:"isDeleted" json:"isDeleted"`
	UpdatedAt     int64   `bson:"updatedAt" json:"updatedAt"`
}

// Repeating reports whether the reminder recurs.
func (r *Reminder) Repeating() bool {
	return r.Repeat != "" && r.Repeat != RepeatNone
}

// Terminal reports whether the reminder has finished its lifecycle: a
// one-time reminder whose event already fired. Terminal records are never
// uploaded, not even as tombstones.
func (r *Reminder) Terminal() bool {
	return !r.Enabled && !r.Repeating()
}

// TouchUpdatedAt advances UpdatedAt to now, keeping it strictly increasing
// even if the wall clock stalls or steps backwards between saves.
func (r *Reminder) TouchUpdatedAt(now time.Time) {
	ms := now.UnixMilli()
	if ms <= r.UpdatedAt {
		ms = r.UpdatedAt + 1
	}
	r.UpdatedAt = ms
}
