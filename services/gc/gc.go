package gc

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	reminderRepo "remindful/database/repository/reminder"
	remoteRepo "remindful/database/repository/remote"
	"remindful/models"
	"remindful/services/sync"
	"remindful/utils"

	"go.uber.org/zap"
)

const millisPerDay = 86_400_000

// TombstoneCollector permanently removes soft-deleted rows once they age past
// the retention window, remote copies first.
//
// Callers must run a sync pass before collecting: hard-deleting a local
// tombstone that never reached the remote store loses the deletion signal,
// and the surviving remote copy resurrects on a later pull.
type TombstoneCollector interface {
	Run(ctx context.Context) (*models.GCReport, error)
	LastReport() *models.GCReport
}

// DefaultTombstoneCollector implements TombstoneCollector for reminders.
type DefaultTombstoneCollector struct {
	Identity      sync.IdentityProvider
	Reminders     reminderRepo.ReminderRepository
	Remote        remoteRepo.RemoteStore
	Collection    string
	RetentionDays int

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	reportMu gosync.RWMutex
	last     *models.GCReport
}

func (s *DefaultTombstoneCollector) Run(ctx context.Context) (*models.GCReport, error) {
	logger := utils.GetLogger()
	started := s.now()
	cutoff := started.UnixMilli() - int64(s.retentionDays())*millisPerDay

	report := &models.GCReport{Cutoff: cutoff, StartedAt: started}

	// 1. Local scan.
	localIDs, err := s.Reminders.TombstoneIDsBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local tombstones: %w", err)
	}
	report.LocalCandidates = len(localIDs)

	// 2. Remote scan. Any failure here, a missing account included, degrades
	// to an empty candidate list; the local side still gets cleaned.
	uid, remoteIDs := s.remoteCandidates(ctx, cutoff)
	report.RemoteCandidates = len(remoteIDs)

	// 3. Remote hard-delete first: if the run dies here, the next one still
	// finds the local rows and retries. The reverse order would strand remote
	// tombstones nothing ever scans again.
	if len(remoteIDs) > 0 {
		deleted, err := s.Remote.DeleteByIDs(ctx, s.Collection, uid, remoteIDs)
		if err != nil {
			logger.Warn("Remote tombstone delete failed; leaving them for the next run", zap.Error(err))
		}
		report.RemoteDeleted = int(deleted)
	}
	report.RemoteSkipped = report.RemoteCandidates - report.RemoteDeleted

	// 4. Local hard-delete second, not gated on remote success.
	if len(localIDs) > 0 {
		deleted, err := s.Reminders.HardDeleteByIDs(ctx, localIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to hard-delete local tombstones: %w", err)
		}
		report.LocalDeleted = int(deleted)
	}

	report.Duration = s.now().Sub(started)
	s.setLastReport(report)

	logger.Info("Tombstone collection finished",
		zap.Int64("cutoff", cutoff),
		zap.Int("localDeleted", report.LocalDeleted),
		zap.Int("remoteDeleted", report.RemoteDeleted),
		zap.Int("remoteSkipped", report.RemoteSkipped),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}

// LastReport returns the most recent run's report, nil before any run.
func (s *DefaultTombstoneCollector) LastReport() *models.GCReport {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.last
}

func (s *DefaultTombstoneCollector) setLastReport(r *models.GCReport) {
	s.reportMu.Lock()
	s.last = r
	s.reportMu.Unlock()
}

func (s *DefaultTombstoneCollector) remoteCandidates(ctx context.Context, cutoff int64) (string, []string) {
	logger := utils.GetLogger()

	uid, err := s.Identity.CurrentUID(ctx)
	if err != nil || uid == "" {
		logger.Warn("No signed-in account; skipping remote tombstone scan")
		return "", nil
	}

	ids, err := s.Remote.TombstoneIDsBefore(ctx, s.Collection, uid, cutoff)
	if err != nil {
		logger.Warn("Remote tombstone scan failed; treating as empty", zap.Error(err))
		return uid, nil
	}
	return uid, ids
}

func (s *DefaultTombstoneCollector) retentionDays() int {
	if s.RetentionDays > 0 {
		return s.RetentionDays
	}
	return 30
}

func (s *DefaultTombstoneCollector) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
