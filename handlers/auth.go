package handlers

import (
	"errors"
	"net/http"

	"remindful/services/identity"
	"remindful/services/sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes account sign-in and session management.
type AuthHandler struct {
	Identity identity.IdentityService
	Sessions identity.SessionStore
}

func NewAuthHandler(identitySvc identity.IdentityService, sessions identity.SessionStore) *AuthHandler {
	return &AuthHandler{Identity: identitySvc, Sessions: sessions}
}

// SignInHandler handles POST /api/auth/signin. It exchanges a Firebase ID
// token for a local session token.
func (h *AuthHandler) SignInHandler(c *gin.Context) {
	logger := getLogger(c)

	var req struct {
		IDToken    string `json:"idToken" binding:"required"`
		DeviceName string `json:"deviceName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.Identity.SignIn(c.Request.Context(), req.IDToken, req.DeviceName)
	if err != nil {
		logger.Warn("Sign-in failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign-in failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SignOutHandler handles POST /api/auth/signout.
func (h *AuthHandler) SignOutHandler(c *gin.Context) {
	if err := h.Identity.SignOut(c.Request.Context()); err != nil {
		getLogger(c).Error("Sign-out failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// SessionStatusHandler handles GET /api/auth/session.
func (h *AuthHandler) SessionStatusHandler(c *gin.Context) {
	session, err := h.Identity.Current(c.Request.Context())
	if errors.Is(err, sync.ErrNoSession) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No account signed in"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uid":        session.UID,
		"email":      session.Email,
		"deviceName": session.DeviceName,
		"createdAt":  session.CreatedAt,
	})
}

// UpdateFCMTokenHandler handles PUT /api/auth/device-token. It registers the
// device token reminder pushes are delivered to.
func (h *AuthHandler) UpdateFCMTokenHandler(c *gin.Context) {
	var req struct {
		FCMToken string `json:"fcmToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.Sessions.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No account signed in"})
		return
	}

	session.FCMToken = req.FCMToken
	if err := h.Sessions.Save(c.Request.Context(), *session); err != nil {
		getLogger(c).Error("Failed to store device token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device token updated"})
}
