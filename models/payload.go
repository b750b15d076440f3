// File: remindful/models/payload.go
package models

// ReminderPayload is the task payload carried through the delayed-task queue
// for a single trigger fire.
type ReminderPayload struct {
	ReminderID   string `json:"reminderId"`
	OffsetMillis int64  `json:"offsetMillis"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	FireAt       int64  `json:"fireAt"` // epoch millis
}
