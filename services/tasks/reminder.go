package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"remindful/models"

	"github.com/hibiken/asynq"
)

const TypeReminderFire = "reminder:fire"

// FireTaskID names the queue task for one trigger. The fire instant is part
// of the id: when a slot is rescheduled while its previous task still exists
// on the queue, the replacement must carry a distinct id.
func FireTaskID(reminderID string, offsetMillis, fireAt int64) string {
	return fmt.Sprintf("remindful:fire:%s:%d:%d", reminderID, offsetMillis, fireAt)
}

// NewFireTask builds the delayed queue task for one trigger fire.
func NewFireTask(p models.ReminderPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReminderFire, b)
	opts := []asynq.Option{
		asynq.TaskID(FireTaskID(p.ReminderID, p.OffsetMillis, p.FireAt)),
		asynq.ProcessAt(time.UnixMilli(p.FireAt)),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}
