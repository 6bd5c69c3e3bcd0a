package handlers

import (
	"net/http"

	"newsrec/internal/auth"
	"newsrec/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PreferenceHandler handles the collaborator writes that feed the
// recommender: searches, favorite keywords, and summary feedback.
type PreferenceHandler struct {
	searchHistory *services.SearchHistoryService
	preferences   *services.PreferenceService
	feedback      *services.FeedbackService
}

func NewPreferenceHandler(searchHistory *services.SearchHistoryService, preferences *services.PreferenceService, feedback *services.FeedbackService) *PreferenceHandler {
	return &PreferenceHandler{searchHistory: searchHistory, preferences: preferences, feedback: feedback}
}

type recordSearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// RecordSearch handles POST /api/search-history
func (h *PreferenceHandler) RecordSearch(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	var req recordSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	if err := h.searchHistory.RecordSearch(c.Request.Context(), *userID, req.Query); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record search"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Search recorded."})
}

type setKeywordsRequest struct {
	Keywords []string `json:"keywords"`
}

// SetFavoriteKeywords handles PUT /api/preferences/keywords
func (h *PreferenceHandler) SetFavoriteKeywords(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	var req setKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.preferences.SetFavoriteKeywords(c.Request.Context(), *userID, req.Keywords); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save keywords"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Favorite keywords saved."})
}

type feedbackRequest struct {
	IsUpvote *bool `json:"is_upvote" binding:"required"`
}

// SetFeedback handles POST /api/summaries/:id/feedback
func (h *PreferenceHandler) SetFeedback(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	summaryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid summary id"})
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_upvote is required"})
		return
	}

	if err := h.feedback.SetFeedback(c.Request.Context(), *userID, summaryID, *req.IsUpvote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save feedback"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Feedback saved."})
}
