package recommender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsrec/internal/logger"
	"newsrec/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Component identifies one of the two full-text-derived score fields.
type Component string

const (
	ComponentSearchHistory    Component = "search_history_score"
	ComponentFavoriteKeywords Component = "favorite_keywords_score"
)

// RankingService owns the per-(user, summary) score cache. It is the
// only writer of summary_rankings. Failures never propagate: a view or
// click must succeed even when re-ranking does not, so every public
// method degrades to a logged no-op on storage errors.
type RankingService struct {
	db     *gorm.DB
	cfg    ScoringConfig
	scorer CategoryScorer
	ranker Ranker
	log    *logger.Logger
}

func NewRankingService(db *gorm.DB, cfg ScoringConfig, scorer CategoryScorer, ranker Ranker, log *logger.Logger) *RankingService {
	return &RankingService{db: db, cfg: cfg, scorer: scorer, ranker: ranker, log: log}
}

// UpsertRanking recomputes and persists the ranking for one
// (user, summary) pair. When categoryID is set, only the category
// component is rescored; the two full-text components keep their cached
// values. Rankings whose new total falls below the significance
// threshold are discarded (or deleted if previously persisted).
// Returns nil both on failure and when the ranking is not significant.
func (s *RankingService) UpsertRanking(ctx context.Context, userID, summaryID uuid.UUID, categoryID *uuid.UUID) *models.SummaryRanking {
	var ranking models.SummaryRanking
	created := false

	err := s.db.WithContext(ctx).
		Where("summary_id = ? AND user_id = ?", summaryID, userID).
		First(&ranking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created = true
		ranking = models.SummaryRanking{SummaryID: summaryID, UserID: userID}
	} else if err != nil {
		s.log.Error("failed to load ranking", "summary_id", summaryID, "user_id", userID, "error", err)
		return nil
	}

	previousUpdatedAt := ranking.UpdatedAt

	if categoryID != nil {
		score, err := s.scorer.ScoreCategory(ctx, userID, *categoryID)
		if err != nil {
			s.log.Error("category score failed, keeping previous value",
				"summary_id", summaryID, "user_id", userID, "category_id", *categoryID, "error", err)
		} else {
			ranking.CategoryScore = score
		}
	}

	ranking.TotalScore = s.cfg.TotalScore(ranking.CategoryScore, ranking.SearchHistoryScore, ranking.FavoriteKeywordsScore)

	if ranking.TotalScore < s.cfg.MinTotalScoreToSave {
		if !created {
			s.deleteStale(ctx, summaryID, userID, previousUpdatedAt)
		}
		return nil
	}

	if err := s.persist(ctx, &ranking); err != nil {
		s.log.Error("failed to persist ranking", "summary_id", summaryID, "user_id", userID, "error", err)
		return nil
	}
	return &ranking
}

// deleteStale removes a below-threshold row, but only if no concurrent
// writer has touched it since we read it.
func (s *RankingService) deleteStale(ctx context.Context, summaryID, userID uuid.UUID, readAt time.Time) {
	result := s.db.WithContext(ctx).
		Where("summary_id = ? AND user_id = ? AND updated_at <= ?", summaryID, userID, readAt).
		Delete(&models.SummaryRanking{})
	if result.Error != nil {
		s.log.Error("failed to delete insignificant ranking", "summary_id", summaryID, "user_id", userID, "error", result.Error)
	}
}

func (s *RankingService) persist(ctx context.Context, ranking *models.SummaryRanking) error {
	ranking.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "summary_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category_score", "search_history_score", "favorite_keywords_score", "total_score", "updated_at",
		}),
	}).Create(ranking).Error
}

// PropagateCategoryUpdate fans one interaction out to every other
// candidate-window summary sharing the interacted summary's category.
// This is the most expensive write-path operation; the candidate window
// bounds it, and callers run it on the dispatcher, never inline.
func (s *RankingService) PropagateCategoryUpdate(ctx context.Context, userID, interactedSummaryID uuid.UUID) error {
	categoryID, err := s.CategoryOfSummary(ctx, interactedSummaryID)
	if err != nil {
		return err
	}
	if categoryID == nil {
		return nil
	}

	var summaryIDs []uuid.UUID
	cutoff := time.Now().Add(-s.cfg.CandidateWindow)
	err = s.db.WithContext(ctx).
		Table("summaries").
		Select("summaries.id").
		Joins("JOIN article_categories ON article_categories.article_id = summaries.article_id").
		Where("article_categories.category_id = ? AND summaries.created_at >= ? AND summaries.id <> ?",
			*categoryID, cutoff, interactedSummaryID).
		Scan(&summaryIDs).Error
	if err != nil {
		return fmt.Errorf("failed to list category summaries: %w", err)
	}

	for _, summaryID := range summaryIDs {
		s.UpsertRanking(ctx, userID, summaryID, categoryID)
	}

	s.log.Debug("propagated category update",
		"user_id", userID, "category_id", *categoryID, "summaries", len(summaryIDs))
	return nil
}

// BulkRefreshComponentScore recomputes a single full-text component for
// every ranking the user already has, after their keyword set changed.
// One batched rank query, one batched write. An empty keyword set
// resets the component to 0 without touching the full-text engine.
func (s *RankingService) BulkRefreshComponentScore(ctx context.Context, userID uuid.UUID, keywords []string, component Component) error {
	if component != ComponentSearchHistory && component != ComponentFavoriteKeywords {
		return fmt.Errorf("unknown ranking component %q", component)
	}

	var rankings []models.SummaryRanking
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rankings).Error; err != nil {
		return fmt.Errorf("failed to load rankings: %w", err)
	}
	if len(rankings) == 0 {
		return nil
	}

	cleaned := CleanKeywords(keywords)
	scores := make(map[uuid.UUID]float64)
	if len(cleaned) > 0 {
		summaryIDs := make([]uuid.UUID, len(rankings))
		for i, r := range rankings {
			summaryIDs[i] = r.SummaryID
		}
		ranked, err := s.ranker.Rank(ctx, summaryIDs, cleaned)
		if err != nil {
			return fmt.Errorf("batched rank failed: %w", err)
		}
		scores = ranked
	}

	var toPersist []models.SummaryRanking
	var toDelete []uuid.UUID
	now := time.Now()

	for _, ranking := range rankings {
		newScore := scores[ranking.SummaryID]
		switch component {
		case ComponentSearchHistory:
			ranking.SearchHistoryScore = newScore
		case ComponentFavoriteKeywords:
			ranking.FavoriteKeywordsScore = newScore
		}
		ranking.TotalScore = s.cfg.TotalScore(ranking.CategoryScore, ranking.SearchHistoryScore, ranking.FavoriteKeywordsScore)
		ranking.UpdatedAt = now

		if ranking.TotalScore < s.cfg.MinTotalScoreToSave {
			toDelete = append(toDelete, ranking.ID)
		} else {
			toPersist = append(toPersist, ranking)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(toPersist) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "summary_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"category_score", "search_history_score", "favorite_keywords_score", "total_score", "updated_at",
				}),
			}).Create(&toPersist).Error
			if err != nil {
				return fmt.Errorf("batched ranking write failed: %w", err)
			}
		}
		if len(toDelete) > 0 {
			if err := tx.Where("id IN ?", toDelete).Delete(&models.SummaryRanking{}).Error; err != nil {
				return fmt.Errorf("batched ranking delete failed: %w", err)
			}
		}
		return nil
	})
}

// CategoryOfSummary resolves the summary's article's first category.
// Nil without error when the article is uncategorized.
func (s *RankingService) CategoryOfSummary(ctx context.Context, summaryID uuid.UUID) (*uuid.UUID, error) {
	var summary models.Summary
	err := s.db.WithContext(ctx).First(&summary, "id = ?", summaryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	var relation models.ArticleCategory
	err = s.db.WithContext(ctx).
		Where("article_id = ?", summary.ArticleID).
		Order("created_at ASC").
		First(&relation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load article category: %w", err)
	}

	return &relation.CategoryID, nil
}
