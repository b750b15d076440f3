package cron

import (
	"context"
	"errors"
	"log"
	"time"

	"remindful/config"
	"remindful/services/gc"
	"remindful/services/sync"
)

// StartSyncLoop replicates on a fixed interval. Busy and signed-out runs are
// normal idle states, not failures.
func StartSyncLoop(ctx context.Context, engine sync.Engine) {
	interval := time.Duration(config.AppConfig.SyncIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync loop shutdown signal received.")
			return
		case <-ticker.C:
			if _, err := engine.SyncAll(ctx); err != nil &&
				!errors.Is(err, sync.ErrNoSession) && !errors.Is(err, sync.ErrSyncBusy) {
				log.Printf("Scheduled sync failed: %v\n", err)
			}
		}
	}
}

// StartGCLoop collects expired tombstones on a fixed interval. Each round
// replicates first so every tombstone it may drop has already been uploaded;
// if that sync fails for any reason other than a missing session, the round
// is skipped rather than risk collecting an unreplicated deletion.
func StartGCLoop(ctx context.Context, engine sync.Engine, collector gc.TombstoneCollector) {
	interval := time.Duration(config.AppConfig.GCIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("GC loop shutdown signal received.")
			return
		case <-ticker.C:
			if _, err := engine.SyncAll(ctx); err != nil && !errors.Is(err, sync.ErrNoSession) {
				log.Printf("Skipping tombstone GC round; pre-sync failed: %v\n", err)
				continue
			}
			if _, err := collector.Run(ctx); err != nil {
				log.Printf("Tombstone GC failed: %v\n", err)
			}
		}
	}
}
