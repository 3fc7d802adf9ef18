package subscription

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-backend/middleware"
)

type Handler struct {
	Service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{Service: s}
}

// POST /api/v1/issues/:issueId/subscribe
func (h *Handler) Subscribe(c *gin.Context) {
	userID := c.GetString("user_id")
	issueID := c.Param("issueId")
	ip := middleware.GetIPFromContext(c)

	ok := h.Service.Subscribe(c.Request.Context(), userID, issueID, ip)
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// DELETE /api/v1/issues/:issueId/subscribe
func (h *Handler) Unsubscribe(c *gin.Context) {
	userID := c.GetString("user_id")
	issueID := c.Param("issueId")
	ip := middleware.GetIPFromContext(c)

	ok := h.Service.Unsubscribe(c.Request.Context(), userID, issueID, ip)
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// GET /api/v1/issues/:issueId/subscription
func (h *Handler) IsSubscribed(c *gin.Context) {
	userID := c.GetString("user_id")
	issueID := c.Param("issueId")

	subscribed := h.Service.IsSubscribed(c.Request.Context(), userID, issueID)
	c.JSON(http.StatusOK, gin.H{"subscribed": subscribed})
}

type deviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /api/v1/notifications/devices
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	userID := c.GetString("user_id")
	ip := middleware.GetIPFromContext(c)

	if err := h.Service.RegisterToken(c.Request.Context(), userID, req.Token, ip); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DELETE /api/v1/notifications/devices
func (h *Handler) RemoveDevice(c *gin.Context) {
	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.Service.RemoveToken(c.Request.Context(), c.GetString("user_id"), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove device token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type settingsRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// PUT /api/v1/notifications/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled flag is required"})
		return
	}

	if err := h.Service.SetEnabled(c.Request.Context(), c.GetString("user_id"), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": *req.Enabled})
}

// GET /api/v1/notifications/settings
func (h *Handler) GetSettings(c *gin.Context) {
	pref, err := h.Service.GetPreference(c.Request.Context(), c.GetString("user_id"))
	if errors.Is(err, ErrPreferenceNotFound) {
		c.JSON(http.StatusOK, gin.H{"enabled": true, "subscribedIssues": []string{}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notification settings"})
		return
	}
	c.JSON(http.StatusOK, pref)
}
