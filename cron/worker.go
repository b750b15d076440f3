package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"remindful/config"
	"remindful/models"
	"remindful/services/notification"
	"remindful/services/scheduler"
	"remindful/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// QueueRedisOpt is the connection used by the fire queue's client, server
// and inspector.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitFireWorker runs the async worker in background and returns the server
// so main can shut it down.
func InitFireWorker(engine scheduler.Engine, notifier notification.Notifier) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				fireQueue: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReminderFire, handleFireTask(engine, notifier))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[FireWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[FireWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[FireWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	return srv
}

func handleFireTask(engine scheduler.Engine, notifier notification.Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[FireHandler] Invalid payload: %v", err)
			return fmt.Errorf("invalid fire payload: %v: %w", err, asynq.SkipRetry)
		}

		// The scheduled instant, not the delivery instant, is what the fire
		// records; a late queue must not shift the series.
		r, err := engine.OnFired(ctx, p.ReminderID, p.OffsetMillis, p.FireAt)
		if err != nil {
			log.Printf("[FireHandler] Failed to process fire for %s: %v", p.ReminderID, err)
			return err
		}
		if r == nil {
			// Lost a race with delete/disable/edit; nothing to deliver.
			return nil
		}

		// Deliver with the row's current text, not the text captured at
		// scheduling time.
		p.Title = r.Title
		p.Body = r.Notes
		if err := notifier.NotifyFired(ctx, r, p); err != nil {
			log.Printf("[FireHandler] Failed to deliver notification for %s: %v", p.ReminderID, err)
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[FireWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
