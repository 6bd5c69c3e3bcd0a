package services

import (
	"context"
	"errors"
	"fmt"

	"newsrec/internal/logger"
	"newsrec/internal/models"
	"newsrec/internal/recommender"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceService owns the user's declared favorite keywords.
type PreferenceService struct {
	db    *gorm.DB
	hooks *recommender.Hooks
	log   *logger.Logger
}

func NewPreferenceService(db *gorm.DB, hooks *recommender.Hooks, log *logger.Logger) *PreferenceService {
	return &PreferenceService{db: db, hooks: hooks, log: log}
}

// GetFavoriteKeywords returns the user's list, empty when they have no
// preference row.
func (s *PreferenceService) GetFavoriteKeywords(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var pref models.UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preference: %w", err)
	}
	return pref.FavoriteKeywords, nil
}

// SetFavoriteKeywords replaces the user's list and triggers the
// favorite-keywords ranking refresh.
func (s *PreferenceService) SetFavoriteKeywords(ctx context.Context, userID uuid.UUID, keywords []string) error {
	cleaned := recommender.CleanKeywords(keywords)

	pref := models.UserPreference{UserID: userID, FavoriteKeywords: cleaned}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"favorite_keywords", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}

	s.hooks.OnFavoriteKeywordsChanged(userID)
	return nil
}
