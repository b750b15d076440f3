package handlers

import (
	"errors"
	"net/http"

	"remindful/services/gc"
	"remindful/services/scheduler"
	"remindful/services/sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OpsHandler exposes the operational endpoints: manual sync and GC runs,
// their last reports, and trigger restore.
type OpsHandler struct {
	Sync      sync.Engine
	GC        gc.TombstoneCollector
	Scheduler scheduler.Engine
}

func NewOpsHandler(syncEngine sync.Engine, collector gc.TombstoneCollector, sched scheduler.Engine) *OpsHandler {
	return &OpsHandler{Sync: syncEngine, GC: collector, Scheduler: sched}
}

// RunSyncHandler handles POST /api/ops/sync.
func (h *OpsHandler) RunSyncHandler(c *gin.Context) {
	report, err := h.Sync.SyncAll(c.Request.Context())
	switch {
	case errors.Is(err, sync.ErrNoSession):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "No account signed in"})
		return
	case errors.Is(err, sync.ErrSyncBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "A sync run is already in progress"})
		return
	case err != nil:
		getLogger(c).Error("Manual sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// SyncStatusHandler handles GET /api/ops/sync.
func (h *OpsHandler) SyncStatusHandler(c *gin.Context) {
	report := h.Sync.LastReport()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No sync has run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunGCHandler handles POST /api/ops/gc. Collection is always preceded by a
// sync so every tombstone it may drop has already replicated; a failed
// pre-sync (other than a missing session) aborts the round.
func (h *OpsHandler) RunGCHandler(c *gin.Context) {
	if _, err := h.Sync.SyncAll(c.Request.Context()); err != nil && !errors.Is(err, sync.ErrNoSession) {
		if errors.Is(err, sync.ErrSyncBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "A sync run is in progress; try again after it finishes"})
			return
		}
		getLogger(c).Error("Pre-GC sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pre-GC sync failed: " + err.Error()})
		return
	}

	report, err := h.GC.Run(c.Request.Context())
	if err != nil {
		getLogger(c).Error("Tombstone GC failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GCStatusHandler handles GET /api/ops/gc.
func (h *OpsHandler) GCStatusHandler(c *gin.Context) {
	report := h.GC.LastReport()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No collection has run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RestoreTriggersHandler handles POST /api/ops/restore. It rebuilds every
// enabled reminder's triggers from the local store, recovering missed fires.
func (h *OpsHandler) RestoreTriggersHandler(c *gin.Context) {
	if err := h.Scheduler.RestoreAll(c.Request.Context()); err != nil {
		getLogger(c).Error("Trigger restore failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Triggers restored"})
}
