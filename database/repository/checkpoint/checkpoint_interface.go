package checkpointRepo

import (
	"context"

	"remindful/models"
)

// CheckpointRepository persists per-entity-type sync watermarks. The sync
// engine is the only writer; watermarks never move backwards.
type CheckpointRepository interface {
	// Get retrieves the checkpoint for an entity key. Returns nil when the
	// key has never synced.
	Get(ctx context.Context, key string) (*models.SyncCheckpoint, error)
	// Upsert replaces the checkpoint row for its key.
	Upsert(ctx context.Context, cp *models.SyncCheckpoint) error
}
