package recommender

import (
	"context"
	"errors"
	"fmt"

	"newsrec/internal/logger"
	"newsrec/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryEngagement is a user's aggregate interaction with one
// category: summed qualifying view durations plus click count.
type CategoryEngagement struct {
	CategoryID    uuid.UUID
	TotalDuration int64
	ClickCount    int64
}

// EngagementSource provides per-category engagement aggregates.
type EngagementSource interface {
	AggregateCategoryEngagement(ctx context.Context, userID uuid.UUID) ([]CategoryEngagement, error)
	CategoryEngagementFor(ctx context.Context, userID, categoryID uuid.UUID) (CategoryEngagement, error)
}

// CacheInvalidator drops derived per-user scoring state after a new
// interaction lands. The log-normalization scorer has nothing to drop.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// InteractionService records raw engagement events and aggregates them.
// View and click logs are the source of truth; everything the ranking
// layer derives from them can be rebuilt.
type InteractionService struct {
	db          *gorm.DB
	cfg         ScoringConfig
	log         *logger.Logger
	invalidator CacheInvalidator
}

// NewInteractionService creates a new interaction service. invalidator
// may be nil when the active category scorer keeps no per-user cache.
func NewInteractionService(db *gorm.DB, cfg ScoringConfig, log *logger.Logger, invalidator CacheInvalidator) *InteractionService {
	return &InteractionService{db: db, cfg: cfg, log: log, invalidator: invalidator}
}

// SetInvalidator wires the category scorer's cache invalidation after
// construction. The scorer aggregates through this service, so the two
// reference each other.
func (s *InteractionService) SetInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

// RecordView appends a view log for the user and returns the user's
// total logged duration for this summary after the insert. Anonymous
// views are not logged and return 0.
func (s *InteractionService) RecordView(ctx context.Context, userID *uuid.UUID, summaryID uuid.UUID, durationSeconds int) (int64, error) {
	if durationSeconds < 0 {
		return 0, ErrInvalidDuration
	}

	if _, err := s.getSummary(ctx, summaryID); err != nil {
		return 0, err
	}

	if userID == nil {
		s.log.Debug("skipping view log for anonymous user", "summary_id", summaryID)
		return 0, nil
	}

	viewLog := models.SummaryViewLog{
		UserID:          userID,
		SummaryID:       summaryID,
		DurationSeconds: durationSeconds,
	}
	if err := s.db.WithContext(ctx).Create(&viewLog).Error; err != nil {
		return 0, fmt.Errorf("failed to create view log: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, *userID)
	}

	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.SummaryViewLog{}).
		Where("user_id = ? AND summary_id = ?", *userID, summaryID).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum view durations: %w", err)
	}

	return total, nil
}

// RecordClick appends a click log when the user is authenticated and
// returns the clicked summary. Anonymous clicks produce no log row;
// the caller still bumps article stats for them.
func (s *InteractionService) RecordClick(ctx context.Context, userID *uuid.UUID, summaryID uuid.UUID) (*models.Summary, error) {
	summary, err := s.getSummary(ctx, summaryID)
	if err != nil {
		return nil, err
	}

	if userID == nil {
		return summary, nil
	}

	clickLog := models.SummaryClickLog{
		UserID:    userID,
		SummaryID: summaryID,
	}
	if err := s.db.WithContext(ctx).Create(&clickLog).Error; err != nil {
		return nil, fmt.Errorf("failed to create click log: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, *userID)
	}

	return summary, nil
}

// AggregateCategoryEngagement scans the user's qualifying view logs and
// click logs, maps each interacted summary to its article's categories
// and sums per category. This is the expensive call the category
// scorers build on.
func (s *InteractionService) AggregateCategoryEngagement(ctx context.Context, userID uuid.UUID) ([]CategoryEngagement, error) {
	type row struct {
		CategoryID uuid.UUID
		Value      int64
	}

	var durationRows []row
	err := s.db.WithContext(ctx).
		Table("summary_view_logs").
		Select("article_categories.category_id AS category_id, COALESCE(SUM(summary_view_logs.duration_seconds), 0) AS value").
		Joins("JOIN summaries ON summaries.id = summary_view_logs.summary_id").
		Joins("JOIN article_categories ON article_categories.article_id = summaries.article_id").
		Where("summary_view_logs.user_id = ? AND summary_view_logs.duration_seconds >= ?", userID, s.cfg.ViewDurationThreshold).
		Group("article_categories.category_id").
		Scan(&durationRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate view durations: %w", err)
	}

	var clickRows []row
	err = s.db.WithContext(ctx).
		Table("summary_click_logs").
		Select("article_categories.category_id AS category_id, COUNT(*) AS value").
		Joins("JOIN summaries ON summaries.id = summary_click_logs.summary_id").
		Joins("JOIN article_categories ON article_categories.article_id = summaries.article_id").
		Where("summary_click_logs.user_id = ?", userID).
		Group("article_categories.category_id").
		Scan(&clickRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks: %w", err)
	}

	byCategory := make(map[uuid.UUID]*CategoryEngagement)
	for _, r := range durationRows {
		byCategory[r.CategoryID] = &CategoryEngagement{CategoryID: r.CategoryID, TotalDuration: r.Value}
	}
	for _, r := range clickRows {
		if e, ok := byCategory[r.CategoryID]; ok {
			e.ClickCount = r.Value
		} else {
			byCategory[r.CategoryID] = &CategoryEngagement{CategoryID: r.CategoryID, ClickCount: r.Value}
		}
	}

	engagements := make([]CategoryEngagement, 0, len(byCategory))
	for _, e := range byCategory {
		engagements = append(engagements, *e)
	}
	return engagements, nil
}

// CategoryEngagementFor returns the user's aggregate for one category.
func (s *InteractionService) CategoryEngagementFor(ctx context.Context, userID, categoryID uuid.UUID) (CategoryEngagement, error) {
	engagement := CategoryEngagement{CategoryID: categoryID}

	err := s.db.WithContext(ctx).
		Table("summary_view_logs").
		Select("COALESCE(SUM(summary_view_logs.duration_seconds), 0)").
		Joins("JOIN summaries ON summaries.id = summary_view_logs.summary_id").
		Joins("JOIN article_categories ON article_categories.article_id = summaries.article_id").
		Where("summary_view_logs.user_id = ? AND summary_view_logs.duration_seconds >= ? AND article_categories.category_id = ?",
			userID, s.cfg.ViewDurationThreshold, categoryID).
		Scan(&engagement.TotalDuration).Error
	if err != nil {
		return engagement, fmt.Errorf("failed to sum category durations: %w", err)
	}

	err = s.db.WithContext(ctx).
		Table("summary_click_logs").
		Select("COUNT(*)").
		Joins("JOIN summaries ON summaries.id = summary_click_logs.summary_id").
		Joins("JOIN article_categories ON article_categories.article_id = summaries.article_id").
		Where("summary_click_logs.user_id = ? AND article_categories.category_id = ?", userID, categoryID).
		Scan(&engagement.ClickCount).Error
	if err != nil {
		return engagement, fmt.Errorf("failed to count category clicks: %w", err)
	}

	return engagement, nil
}

func (s *InteractionService) getSummary(ctx context.Context, summaryID uuid.UUID) (*models.Summary, error) {
	var summary models.Summary
	err := s.db.WithContext(ctx).First(&summary, "id = ?", summaryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	return &summary, nil
}
