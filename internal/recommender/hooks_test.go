package recommender

import (
	"context"
	"testing"

	"newsrec/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newHooksFixture(t *testing.T) (*Hooks, *syncDispatcher, *gorm.DB, ScoringConfig) {
	db := setupTestDB(t)
	cfg := DefaultScoringConfig()
	log := testLogger()
	interactions := NewInteractionService(db, cfg, log, nil)
	scorer := NewLogNormScorer(interactions, cfg)
	ranker := newFakeRanker(nil)
	ranking := NewRankingService(db, cfg, scorer, ranker, log)
	dispatcher := &syncDispatcher{}
	hooks := NewHooks(db, cfg, interactions, ranking, dispatcher, log)
	return hooks, dispatcher, db, cfg
}

func TestOnViewBelowThresholdLogsWithoutRanking(t *testing.T) {
	hooks, dispatcher, db, _ := newHooksFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Công nghệ")
	summary := createTestSummary(t, db, category.ID, defaultCreatedAt())

	total, err := hooks.OnView(ctx, &user.ID, summary.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)

	var viewLogs int64
	db.Model(&models.SummaryViewLog{}).Count(&viewLogs)
	assert.Equal(t, int64(1), viewLogs, "the raw event is always logged")

	var rankings int64
	db.Model(&models.SummaryRanking{}).Count(&rankings)
	assert.Equal(t, int64(0), rankings, "a bounce must not trigger re-ranking")
	assert.Empty(t, dispatcher.debouncedKeys)
}

func TestOnViewQualifyingTriggersRanking(t *testing.T) {
	hooks, dispatcher, db, _ := newHooksFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Công nghệ")
	summary := createTestSummary(t, db, category.ID, defaultCreatedAt())
	sibling := createTestSummary(t, db, category.ID, defaultCreatedAt())

	total, err := hooks.OnView(ctx, &user.ID, summary.ID, 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(30), total)

	// The viewed summary is rescored synchronously, the category
	// fan-out ran through the (debounced) dispatcher.
	var viewed models.SummaryRanking
	assert.NoError(t, db.Where("summary_id = ? AND user_id = ?", summary.ID, user.ID).First(&viewed).Error)
	assert.Greater(t, viewed.TotalScore, 0.0)

	var siblingRanking models.SummaryRanking
	assert.NoError(t, db.Where("summary_id = ? AND user_id = ?", sibling.ID, user.ID).First(&siblingRanking).Error)

	assert.Len(t, dispatcher.debouncedKeys, 1)
}

func TestOnViewAnonymous(t *testing.T) {
	hooks, dispatcher, db, _ := newHooksFixture(t)
	ctx := context.Background()

	category := createTestCategory(t, db, "Thể thao")
	summary := createTestSummary(t, db, category.ID, defaultCreatedAt())

	total, err := hooks.OnView(ctx, nil, summary.ID, 60)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)

	var rankings int64
	db.Model(&models.SummaryRanking{}).Count(&rankings)
	assert.Equal(t, int64(0), rankings)
	assert.Empty(t, dispatcher.debouncedKeys)
}

func TestOnClick(t *testing.T) {
	hooks, _, db, _ := newHooksFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Giải trí")
	summary := createTestSummary(t, db, category.ID, defaultCreatedAt())

	t.Run("authenticated click updates stats and ranking", func(t *testing.T) {
		message, err := hooks.OnClick(ctx, &user.ID, summary.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Click tracked, stats updated, and ranking processed successfully.", message)

		var stats models.ArticleStats
		assert.NoError(t, db.First(&stats, "article_id = ?", summary.ArticleID).Error)
		assert.Equal(t, 1, stats.ViewCount)

		var ranking models.SummaryRanking
		assert.NoError(t, db.Where("summary_id = ? AND user_id = ?", summary.ID, user.ID).First(&ranking).Error)
	})

	t.Run("anonymous click bumps stats only", func(t *testing.T) {
		message, err := hooks.OnClick(ctx, nil, summary.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Click processed for general stats only (anonymous user).", message)

		var stats models.ArticleStats
		assert.NoError(t, db.First(&stats, "article_id = ?", summary.ArticleID).Error)
		assert.Equal(t, 2, stats.ViewCount)

		var clickLogs int64
		db.Model(&models.SummaryClickLog{}).Count(&clickLogs)
		assert.Equal(t, int64(1), clickLogs, "only the authenticated click was logged")
	})
}

func TestOnSearchHistoryChangedRefreshesComponent(t *testing.T) {
	hooks, _, db, cfg := newHooksFixture(t)

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Kinh doanh")
	summary := createTestSummary(t, db, category.ID, defaultCreatedAt())

	seed := models.SummaryRanking{
		SummaryID:          summary.ID,
		UserID:             user.ID,
		CategoryScore:      0.8,
		SearchHistoryScore: 0.5,
		TotalScore:         cfg.TotalScore(0.8, 0.5, 0),
	}
	assert.NoError(t, db.Create(&seed).Error)

	history := models.SearchHistory{UserID: user.ID, Query: "giá vàng"}
	assert.NoError(t, db.Create(&history).Error)

	hooks.OnSearchHistoryChanged(user.ID)

	// The fake ranker holds no score for the summary, so the refresh
	// zeroes the search-history component.
	var updated models.SummaryRanking
	assert.NoError(t, db.Where("summary_id = ?", summary.ID).First(&updated).Error)
	assert.Equal(t, 0.0, updated.SearchHistoryScore)
	assert.InDelta(t, cfg.TotalScore(0.8, 0, 0), updated.TotalScore, 1e-9)
}

func TestOnFavoriteKeywordsChangedWithoutPreferenceRow(t *testing.T) {
	hooks, _, db, cfg := newHooksFixture(t)

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Sức khỏe")
	summary := createTestSummary(t, db, category.ID, defaultCreatedAt())

	seed := models.SummaryRanking{
		SummaryID:             summary.ID,
		UserID:                user.ID,
		CategoryScore:         0.8,
		FavoriteKeywordsScore: 0.7,
		TotalScore:            cfg.TotalScore(0.8, 0, 0.7),
	}
	assert.NoError(t, db.Create(&seed).Error)

	// Preference row deleted entirely: the component resets to zero.
	hooks.OnFavoriteKeywordsChanged(user.ID)

	var updated models.SummaryRanking
	assert.NoError(t, db.Where("summary_id = ?", summary.ID).First(&updated).Error)
	assert.Equal(t, 0.0, updated.FavoriteKeywordsScore)
	assert.InDelta(t, cfg.TotalScore(0.8, 0, 0), updated.TotalScore, 1e-9)
}
