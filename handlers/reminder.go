package handlers

import (
	"errors"
	"net/http"

	"remindful/models"
	"remindful/services/reminder"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReminderHandler exposes reminder CRUD.
type ReminderHandler struct {
	Service reminder.ReminderService
}

func NewReminderHandler(svc reminder.ReminderService) *ReminderHandler {
	return &ReminderHandler{Service: svc}
}

// CreateReminderHandler handles POST /api/reminders.
func (h *ReminderHandler) CreateReminderHandler(c *gin.Context) {
	var req models.Reminder
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	created, err := h.Service.Create(c.Request.Context(), &req)
	if err != nil {
		respondReminderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateReminderHandler handles PUT /api/reminders/:id.
func (h *ReminderHandler) UpdateReminderHandler(c *gin.Context) {
	var req models.Reminder
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	req.ID = c.Param("id")

	updated, err := h.Service.Update(c.Request.Context(), &req)
	if err != nil {
		respondReminderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SetEnabledHandler handles PATCH /api/reminders/:id/enabled.
func (h *ReminderHandler) SetEnabledHandler(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	updated, err := h.Service.SetEnabled(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		respondReminderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReminderHandler handles DELETE /api/reminders/:id.
func (h *ReminderHandler) DeleteReminderHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		getLogger(c).Error("Delete error", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReminderHandler handles GET /api/reminders/:id.
func (h *ReminderHandler) GetReminderHandler(c *gin.Context) {
	r, err := h.Service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondReminderError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ListRemindersHandler handles GET /api/reminders.
func (h *ReminderHandler) ListRemindersHandler(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func respondReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reminder.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
	case errors.Is(err, reminder.ErrDeleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Reminder is deleted"})
	case errors.Is(err, reminder.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		getLogger(c).Error("Reminder operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
