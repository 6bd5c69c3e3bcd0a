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

// JobDispatcher defers slow re-ranking work off the request path.
// Implemented by worker.Dispatcher.
type JobDispatcher interface {
	Enqueue(name string, run func(ctx context.Context)) bool
	// EnqueueDebounced collapses repeated enqueues for the same key
	// within the debounce window into one execution.
	EnqueueDebounced(key string, run func(ctx context.Context))
}

// Hooks are the entry points the API layer invokes on user events. Each
// hook records the raw event synchronously (the source of truth), then
// defers the derived-cache update: a slow or failing re-rank never
// delays or fails the triggering action.
type Hooks struct {
	db           *gorm.DB
	cfg          ScoringConfig
	interactions *InteractionService
	ranking      *RankingService
	dispatcher   JobDispatcher
	log          *logger.Logger
}

func NewHooks(db *gorm.DB, cfg ScoringConfig, interactions *InteractionService, ranking *RankingService, dispatcher JobDispatcher, log *logger.Logger) *Hooks {
	return &Hooks{db: db, cfg: cfg, interactions: interactions, ranking: ranking, dispatcher: dispatcher, log: log}
}

// OnView logs a view and, for qualifying authenticated views, triggers
// the ranking update for the viewed summary plus debounced category
// fan-out. Returns the user's total logged duration for the summary.
func (h *Hooks) OnView(ctx context.Context, userID *uuid.UUID, summaryID uuid.UUID, durationSeconds int) (int64, error) {
	total, err := h.interactions.RecordView(ctx, userID, summaryID, durationSeconds)
	if err != nil {
		return 0, err
	}

	if userID != nil && durationSeconds >= h.cfg.ViewDurationThreshold {
		h.triggerRankingUpdate(ctx, *userID, summaryID)
	}
	return total, nil
}

// OnClick logs a click, bumps the article's view-count stat, and for
// authenticated users triggers the same ranking sequence as a view.
// The returned message mirrors what the API layer reports.
func (h *Hooks) OnClick(ctx context.Context, userID *uuid.UUID, summaryID uuid.UUID) (string, error) {
	summary, err := h.interactions.RecordClick(ctx, userID, summaryID)
	if err != nil {
		return "", err
	}

	if err := h.incrementViewCount(ctx, summary.ArticleID); err != nil {
		h.log.Error("failed to bump article view count", "article_id", summary.ArticleID, "error", err)
	}

	if userID == nil {
		return "Click processed for general stats only (anonymous user).", nil
	}

	h.triggerRankingUpdate(ctx, *userID, summaryID)
	return "Click tracked, stats updated, and ranking processed successfully.", nil
}

// OnSearchHistoryChanged refreshes the search-history component of the
// user's cached rankings from their recent distinct queries.
func (h *Hooks) OnSearchHistoryChanged(userID uuid.UUID) {
	h.dispatcher.Enqueue("search-history-refresh", func(ctx context.Context) {
		keywords, err := h.recentQueries(ctx, userID)
		if err != nil {
			h.log.Error("failed to load recent queries", "user_id", userID, "error", err)
			return
		}
		if err := h.ranking.BulkRefreshComponentScore(ctx, userID, keywords, ComponentSearchHistory); err != nil {
			h.log.Error("search-history refresh failed", "user_id", userID, "error", err)
		}
	})
}

// OnFavoriteKeywordsChanged refreshes the favorite-keywords component
// of the user's cached rankings from their current list.
func (h *Hooks) OnFavoriteKeywordsChanged(userID uuid.UUID) {
	h.dispatcher.Enqueue("favorite-keywords-refresh", func(ctx context.Context) {
		var pref models.UserPreference
		err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Error("failed to load user preference", "user_id", userID, "error", err)
			return
		}
		if err := h.ranking.BulkRefreshComponentScore(ctx, userID, pref.FavoriteKeywords, ComponentFavoriteKeywords); err != nil {
			h.log.Error("favorite-keywords refresh failed", "user_id", userID, "error", err)
		}
	})
}

// triggerRankingUpdate rescores the interacted summary synchronously
// (the user is likely to see it again immediately) and defers the
// category fan-out with per-(user, category) debouncing.
func (h *Hooks) triggerRankingUpdate(ctx context.Context, userID, summaryID uuid.UUID) {
	categoryID, err := h.ranking.CategoryOfSummary(ctx, summaryID)
	if err != nil {
		h.log.Error("failed to resolve summary category", "summary_id", summaryID, "error", err)
		return
	}
	if categoryID == nil {
		return
	}

	h.ranking.UpsertRanking(ctx, userID, summaryID, categoryID)

	key := fmt.Sprintf("rerank:%s:%s", userID, *categoryID)
	h.dispatcher.EnqueueDebounced(key, func(jobCtx context.Context) {
		if err := h.ranking.PropagateCategoryUpdate(jobCtx, userID, summaryID); err != nil {
			h.log.Error("category propagation failed", "user_id", userID, "summary_id", summaryID, "error", err)
		}
	})
}

func (h *Hooks) incrementViewCount(ctx context.Context, articleID uuid.UUID) error {
	return h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "article_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"view_count": gorm.Expr("article_stats.view_count + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&models.ArticleStats{ArticleID: articleID, ViewCount: 1}).Error
}

func (h *Hooks) recentQueries(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var queries []string
	err := h.db.WithContext(ctx).
		Model(&models.SearchHistory{}).
		Where("user_id = ? AND created_at >= ?", userID, time.Now().Add(-h.cfg.SearchHistoryWindow)).
		Group("query").
		Order("MAX(created_at) DESC").
		Limit(h.cfg.SearchHistoryLimit).
		Pluck("query", &queries).Error
	return queries, err
}
