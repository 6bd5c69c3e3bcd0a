package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsrec/internal/logger"
	"newsrec/internal/models"
	"newsrec/internal/recommender"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchHistoryService owns the per-user search log and notifies the
// recommender after each write commits.
type SearchHistoryService struct {
	db    *gorm.DB
	hooks *recommender.Hooks
	log   *logger.Logger
}

func NewSearchHistoryService(db *gorm.DB, hooks *recommender.Hooks, log *logger.Logger) *SearchHistoryService {
	return &SearchHistoryService{db: db, hooks: hooks, log: log}
}

// RecordSearch stores one query and triggers the search-history ranking
// refresh. Blank queries are ignored.
func (s *SearchHistoryService) RecordSearch(ctx context.Context, userID uuid.UUID, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	entry := models.SearchHistory{UserID: userID, Query: query}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}

	s.hooks.OnSearchHistoryChanged(userID)
	return nil
}

// RecentQueries returns the user's distinct queries since the given
// time, most recent first, capped at limit.
func (s *SearchHistoryService) RecentQueries(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]string, error) {
	var queries []string
	err := s.db.WithContext(ctx).
		Model(&models.SearchHistory{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("query").
		Order("MAX(created_at) DESC").
		Limit(limit).
		Pluck("query", &queries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent queries: %w", err)
	}
	return queries, nil
}
