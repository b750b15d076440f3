// File: remindful/models/trigger.go
package models

// ScheduledTrigger is the bookkeeping row behind one pending alarm: which
// queue task will fire a reminder's offset, and when. At most one trigger is
// pending per (reminder, offset).
type ScheduledTrigger struct {
	ReminderID   string `json:"reminderId"`
	OffsetMillis int64  `json:"offsetMillis"`
	FireAt       int64  `json:"fireAt"`
	TaskID       string `json:"taskId"`
}
