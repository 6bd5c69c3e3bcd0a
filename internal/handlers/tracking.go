package handlers

import (
	"errors"
	"net/http"

	"newsrec/internal/auth"
	"newsrec/internal/recommender"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TrackingHandler handles the view-duration and click-through events
// the frontend reports.
type TrackingHandler struct {
	hooks *recommender.Hooks
}

func NewTrackingHandler(hooks *recommender.Hooks) *TrackingHandler {
	return &TrackingHandler{hooks: hooks}
}

type logViewRequest struct {
	SummaryID       string `json:"summary_id" binding:"required"`
	DurationSeconds *int   `json:"duration_seconds" binding:"required"`
}

// LogViewTime handles POST /api/recommender/log-view-time
func (h *TrackingHandler) LogViewTime(c *gin.Context) {
	var req logViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "summary_id and duration_seconds are required"})
		return
	}

	summaryID, err := uuid.Parse(req.SummaryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid summary_id format"})
		return
	}

	userID := auth.UserIDFromContext(c)

	total, err := h.hooks.OnView(c.Request.Context(), userID, summaryID, *req.DurationSeconds)
	switch {
	case errors.Is(err, recommender.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Duration must be a non-negative integer."})
	case errors.Is(err, recommender.ErrSummaryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Summary not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log view time due to a server error."})
	default:
		c.JSON(http.StatusCreated, gin.H{
			"message":        "View time logged successfully.",
			"total_duration": total,
		})
	}
}

type trackClickRequest struct {
	SummaryID string `json:"summary_id" binding:"required"`
}

// TrackSourceClick handles POST /api/recommender/track-source-click
func (h *TrackingHandler) TrackSourceClick(c *gin.Context) {
	var req trackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Summary ID is required"})
		return
	}

	summaryID, err := uuid.Parse(req.SummaryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid summary_id format"})
		return
	}

	userID := auth.UserIDFromContext(c)

	message, err := h.hooks.OnClick(c.Request.Context(), userID, summaryID)
	switch {
	case errors.Is(err, recommender.ErrSummaryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Summary not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track click due to a server error."})
	default:
		c.JSON(http.StatusCreated, gin.H{
			"message": "Click tracked and processed.",
			"details": message,
		})
	}
}
