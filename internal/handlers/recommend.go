package handlers

import (
	"net/http"
	"strconv"

	"newsrec/internal/auth"
	"newsrec/internal/recommender"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecommendHandler handles HTTP requests for personalized
// recommendations.
type RecommendHandler struct {
	recommend *recommender.RecommendService
}

func NewRecommendHandler(recommend *recommender.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommend: recommend}
}

// GetRecommendations handles GET /api/recommender/recommendations
func (h *RecommendHandler) GetRecommendations(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var excludeID *uuid.UUID
	if raw := c.Query("exclude_summary_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exclude_summary_id format"})
			return
		}
		excludeID = &parsed
	}

	items, articles, meta := h.recommend.GetRecommendations(c.Request.Context(), userID, excludeID, limit, offset)

	switch meta.Type {
	case recommender.MetaAuthRequired:
		c.JSON(http.StatusUnauthorized, gin.H{"meta": meta})
	case recommender.MetaError:
		c.JSON(http.StatusInternalServerError, gin.H{"meta": meta})
	default:
		c.JSON(http.StatusOK, gin.H{
			"items":    items,
			"articles": articles,
			"meta":     meta,
		})
	}
}

// HealthCheck handles GET /health
func (h *RecommendHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "newsrec",
	})
}
