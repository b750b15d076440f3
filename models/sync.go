// File: remindful/models/sync.go
package models

import "time"

// SyncCheckpoint tracks per-entity-type sync progress. Watermarks are epoch
// milliseconds; nil means "never synced in that direction".
type SyncCheckpoint struct {
	Key              string `json:"key"`
	LastLocalSyncAt  *int64 `json:"lastLocalSyncAt,omitempty"`
	LastRemoteSyncAt *int64 `json:"lastRemoteSyncAt,omitempty"`
}

// EntitySyncReport summarizes one entity type's pass within a sync run.
type EntitySyncReport struct {
	Key         string `json:"key"`
	Pushed      int    `json:"pushed"`
	PushSkipped int    `json:"pushSkipped"`
	Pulled      int    `json:"pulled"`
	Deleted     int    `json:"deleted"`
	PullSkipped int    `json:"pullSkipped"`
	Error       string `json:"error,omitempty"`
}

// SyncReport is the outcome of a full sync run across all registered entity
// types. A non-zero Failed count means at least one entity type errored; the
// others still completed.
type SyncReport struct {
	UID       string             `json:"uid"`
	StartedAt time.Time          `json:"startedAt"`
	Duration  time.Duration      `json:"duration"`
	Failed    int                `json:"failed"`
	Entities  []EntitySyncReport `json:"entities"`
}

func (r *SyncReport) Ok() bool { return r.Failed == 0 }

// GCReport is the immutable outcome of one tombstone collection run.
type GCReport struct {
	Cutoff           int64         `json:"cutoff"`
	LocalCandidates  int           `json:"localCandidates"`
	RemoteCandidates int           `json:"remoteCandidates"`
	LocalDeleted     int           `json:"localDeleted"`
	RemoteDeleted    int           `json:"remoteDeleted"`
	RemoteSkipped    int           `json:"remoteSkipped"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
}

// FireState records the last delivery of one trigger, keyed by reminder id
// and offset. Used on restart to tell missed fires from already-delivered
// ones.
type FireState struct {
	ReminderID   string `json:"reminderId"`
	OffsetMillis int64  `json:"offsetMillis"`
	LastFiredAt  int64  `json:"lastFiredAt"`
}
