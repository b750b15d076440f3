package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	checkpointRepo "remindful/database/repository/checkpoint"
	remoteRepo "remindful/database/repository/remote"
	"remindful/models"
	"remindful/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const defaultPageSize = 500

// IdentityProvider resolves the signed-in account driving a sync run.
type IdentityProvider interface {
	// CurrentUID returns the account uid, or ErrNoSession when nobody is
	// signed in. An empty uid never reaches the protocol.
	CurrentUID(ctx context.Context) (string, error)
}

// Engine drives checkpointed, tombstone-aware sync for every registered
// entity type.
type Engine interface {
	// SyncAll pushes and pulls each registered entity type per its
	// direction. Entity failures are isolated into the report; SyncAll
	// itself errors only when no account is signed in or another run holds
	// the lock.
	SyncAll(ctx context.Context) (*models.SyncReport, error)
	// LastReport returns the most recent run's report, nil before any run.
	LastReport() *models.SyncReport
}

// DefaultSyncEngine implements Engine against the remote document store and
// the local checkpoint table. It is the sole writer of checkpoints.
type DefaultSyncEngine struct {
	Identity    IdentityProvider
	Remote      remoteRepo.RemoteStore
	Checkpoints checkpointRepo.CheckpointRepository
	Lock        *RunLock
	PageSize    int64

	descriptors []Descriptor

	lockOnce gosync.Once
	reportMu gosync.RWMutex
	last     *models.SyncReport
}

// Register adds an entity type to the sync set. Registration happens at
// startup, before the first run.
func (s *DefaultSyncEngine) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}
	s.descriptors = append(s.descriptors, d)
	return nil
}

func (s *DefaultSyncEngine) SyncAll(ctx context.Context) (*models.SyncReport, error) {
	logger := utils.GetLogger()

	// 1. Resolve the account; no session fails the whole run closed.
	uid, err := s.Identity.CurrentUID(ctx)
	if err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, ErrNoSession
	}

	// 2. Refuse to overlap another run.
	if err := s.lock().Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.lock().Release(ctx)

	report := &models.SyncReport{UID: uid, StartedAt: time.Now()}

	// 3. Entities run sequentially; one failure never blocks the others.
	for i := range s.descriptors {
		d := &s.descriptors[i]
		entity := models.EntitySyncReport{Key: d.Key}

		if err := s.syncEntity(ctx, uid, d, &entity); err != nil {
			entity.Error = err.Error()
			report.Failed++
			logger.Error("Entity sync failed", zap.String("entity", d.Key), zap.Error(err))
		}
		report.Entities = append(report.Entities, entity)
	}

	report.Duration = time.Since(report.StartedAt)
	s.setLastReport(report)

	logger.Info("Sync run finished",
		zap.String("uid", uid),
		zap.Int("entities", len(report.Entities)),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}

// LastReport returns the most recent run's report.
func (s *DefaultSyncEngine) LastReport() *models.SyncReport {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.last
}

func (s *DefaultSyncEngine) setLastReport(r *models.SyncReport) {
	s.reportMu.Lock()
	s.last = r
	s.reportMu.Unlock()
}

func (s *DefaultSyncEngine) lock() *RunLock {
	s.lockOnce.Do(func() {
		if s.Lock == nil {
			s.Lock = NewRunLock(nil)
		}
	})
	return s.Lock
}

func (s *DefaultSyncEngine) pageSize() int64 {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return defaultPageSize
}

func (s *DefaultSyncEngine) syncEntity(ctx context.Context, uid string, d *Descriptor, entity *models.EntitySyncReport) error {
	cp, err := s.Checkpoints.Get(ctx, d.Key)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		cp = &models.SyncCheckpoint{Key: d.Key}
	}

	if d.Direction.pushes() {
		if err := s.push(ctx, uid, d, cp, entity); err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
	}
	if d.Direction.pulls() {
		if err := s.pull(ctx, uid, d, cp, entity); err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
	}
	return nil
}

// push replicates local changes since the last push watermark. Rules apply
// per row in strict priority order:
//
//	0. terminal records never upload, not even their tombstones
//	1. a local tombstone uploads unconditionally, as a minimal doc
//	2. a remote tombstone blocks any non-deleted local write
//	3. a strictly newer remote doc blocks a stale local write
//	4. otherwise the full mapped document uploads
func (s *DefaultSyncEngine) push(ctx context.Context, uid string, d *Descriptor, cp *models.SyncCheckpoint, entity *models.EntitySyncReport) error {
	// 1. Fetch the changed window; everything on first sync.
	locals, err := d.Adapter.LocalsChangedAfter(ctx, cp.LastLocalSyncAt)
	if err != nil {
		return fmt.Errorf("failed to read local changes: %w", err)
	}
	if len(locals) == 0 {
		return nil
	}

	// 2. Read the remote counterparts once; rules 2 and 3 compare against them.
	ids := make([]string, 0, len(locals))
	for _, local := range locals {
		ids = append(ids, d.LocalID(local))
	}
	remotes, err := s.Remote.GetByIDs(ctx, d.Collection, uid, ids)
	if err != nil {
		return fmt.Errorf("failed to read remote counterparts: %w", err)
	}

	// 3. Apply the rules.
	var docs []bson.M
	var maxSeen int64
	for _, local := range locals {
		if ts := d.UpdatedAt(local); ts > maxSeen {
			maxSeen = ts
		}

		if d.Terminal(local) {
			entity.PushSkipped++
			continue
		}

		id := d.LocalID(local)
		if d.IsDeleted(local) {
			docs = append(docs, TombstoneDoc(uid, id, d.UpdatedAt(local)))
			entity.Pushed++
			continue
		}

		if remote, ok := remotes[id]; ok {
			if deleted, _ := remote["isDeleted"].(bool); deleted {
				entity.PushSkipped++
				continue
			}
			if remoteTS, ok := NormalizeEpochMillis(remote["updatedAt"]); ok && remoteTS > d.UpdatedAt(local) {
				entity.PushSkipped++
				continue
			}
		}

		doc, err := d.ToRemote(local, uid)
		if err != nil {
			return fmt.Errorf("failed to map %s for upload: %w", id, err)
		}
		docs = append(docs, doc)
		entity.Pushed++
	}

	// 4. One atomic batch; the watermark advances only past a durable commit,
	// so a failed run retries the same window (at-least-once, idempotent by id).
	if err := s.Remote.UpsertAll(ctx, d.Collection, uid, docs); err != nil {
		return fmt.Errorf("failed to commit push batch: %w", err)
	}

	if cp.LastLocalSyncAt == nil || maxSeen > *cp.LastLocalSyncAt {
		cp.LastLocalSyncAt = &maxSeen
		if err := s.Checkpoints.Upsert(ctx, cp); err != nil {
			return fmt.Errorf("failed to advance push watermark: %w", err)
		}
	}
	return nil
}

// pull applies remote changes since the last pull watermark. A local
// tombstone is authoritative and blocks everything for its id; remote
// tombstones propagate regardless of strategy; the conflict strategy only
// arbitrates live-vs-live collisions.
func (s *DefaultSyncEngine) pull(ctx context.Context, uid string, d *Descriptor, cp *models.SyncCheckpoint, entity *models.EntitySyncReport) error {
	logger := utils.GetLogger()

	// 1. Fetch one page of remote changes, oldest first. A full page means
	// more remains; the advanced watermark picks it up next run.
	docs, err := s.Remote.ChangedAfter(ctx, d.Collection, uid, cp.LastRemoteSyncAt, s.pageSize())
	if err != nil {
		return fmt.Errorf("failed to read remote changes: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}

	// 2. Partition the page into upserts and tombstone marks.
	var upserts []any
	var deletes []string
	var maxSeen int64
	var sawTimestamp bool

	for _, doc := range docs {
		id, _ := doc["id"].(string)
		if id == "" {
			entity.PullSkipped++
			logger.Warn("Remote document has no usable id", zap.String("entity", d.Key))
			continue
		}

		remoteTS, tsOK := NormalizeEpochMillis(doc["updatedAt"])
		if tsOK {
			sawTimestamp = true
			if remoteTS > maxSeen {
				maxSeen = remoteTS
			}
		} else {
			logger.Warn("Remote document has malformed updatedAt; treating as epoch zero",
				zap.String("entity", d.Key), zap.String("id", id))
		}

		localDeleted, err := d.Adapter.IsLocalDeleted(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check local tombstone for %s: %w", id, err)
		}
		if localDeleted {
			entity.PullSkipped++
			continue
		}

		if deleted, _ := doc["isDeleted"].(bool); deleted {
			deletes = append(deletes, id)
			continue
		}

		localTS, err := d.Adapter.LocalUpdatedAt(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read local timestamp for %s: %w", id, err)
		}
		if !acceptRemote(d.Strategy, localTS, remoteTS) {
			entity.PullSkipped++
			continue
		}
		upserts = append(upserts, d.FromRemote(id, doc))
	}

	// 3. Two atomic batches. The id sets are disjoint: each id appears once
	// per page and routes to exactly one of them.
	if err := d.Adapter.UpsertAll(ctx, upserts); err != nil {
		return fmt.Errorf("failed to apply pulled upserts: %w", err)
	}
	if err := d.Adapter.MarkDeletedByIDs(ctx, deletes); err != nil {
		return fmt.Errorf("failed to apply pulled deletions: %w", err)
	}
	entity.Pulled += len(upserts)
	entity.Deleted += len(deletes)

	// 4. Let downstream systems react, then advance the watermark.
	if d.OnApplied != nil && (len(upserts) > 0 || len(deletes) > 0) {
		d.OnApplied(ctx, upserts, deletes)
	}

	if sawTimestamp && (cp.LastRemoteSyncAt == nil || maxSeen > *cp.LastRemoteSyncAt) {
		cp.LastRemoteSyncAt = &maxSeen
		if err := s.Checkpoints.Upsert(ctx, cp); err != nil {
			return fmt.Errorf("failed to advance pull watermark: %w", err)
		}
	}
	return nil
}

func acceptRemote(strategy ConflictStrategy, localTS *int64, remoteTS int64) bool {
	if localTS == nil {
		// Nothing local to conflict with.
		return true
	}
	switch strategy {
	case RemoteWins:
		return true
	case LocalWins:
		return false
	case LatestUpdatedWins:
		return remoteTS > *localTS
	default:
		return false
	}
}
