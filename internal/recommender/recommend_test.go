package recommender

import (
	"context"
	"testing"
	"time"

	"newsrec/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newRecommendFixture(t *testing.T) (*RecommendService, *fakeRanker, *gorm.DB, ScoringConfig) {
	db := setupTestDB(t)
	cfg := DefaultScoringConfig()
	interactions := NewInteractionService(db, cfg, testLogger(), nil)
	scorer := NewLogNormScorer(interactions, cfg)
	ranker := newFakeRanker(nil)
	service := NewRecommendService(db, cfg, scorer, ranker, testLogger())
	return service, ranker, db, cfg
}

func TestGetRecommendationsRequiresAuth(t *testing.T) {
	service, _, _, _ := newRecommendFixture(t)

	summaries, articles, meta := service.GetRecommendations(context.Background(), nil, nil, 10, 0)
	assert.Nil(t, summaries)
	assert.Nil(t, articles)
	assert.Equal(t, MetaAuthRequired, meta.Type)
	assert.Equal(t, "Cần đăng nhập để nhận đề xuất cá nhân hóa", meta.Message)
}

func TestGetRecommendationsEmpty(t *testing.T) {
	service, _, db, _ := newRecommendFixture(t)
	user := createTestUser(t, db)

	_, _, meta := service.GetRecommendations(context.Background(), &user.ID, nil, 10, 0)
	assert.Equal(t, MetaEmpty, meta.Type)
	assert.Equal(t, "Không có đề xuất nào khả dụng", meta.Message)
}

func TestGetRecommendationsOrdering(t *testing.T) {
	service, _, db, _ := newRecommendFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Công nghệ")

	older := createTestSummary(t, db, category.ID, time.Now().Add(-3*time.Hour))
	newer := createTestSummary(t, db, category.ID, time.Now().Add(-1*time.Hour))
	top := createTestSummary(t, db, category.ID, time.Now().Add(-2*time.Hour))

	// Pre-cached rankings: top wins on score, older and newer tie and
	// fall back to recency.
	rows := []models.SummaryRanking{
		{SummaryID: top.ID, UserID: user.ID, TotalScore: 0.9},
		{SummaryID: older.ID, UserID: user.ID, TotalScore: 0.4},
		{SummaryID: newer.ID, UserID: user.ID, TotalScore: 0.4},
	}
	assert.NoError(t, db.Create(&rows).Error)

	summaries, articles, meta := service.GetRecommendations(ctx, &user.ID, nil, 10, 0)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Equal(t, "Đã lấy đề xuất thành công", meta.Message)
	assert.Len(t, summaries, 3)

	assert.Equal(t, top.ID, summaries[0].ID)
	assert.Equal(t, newer.ID, summaries[1].ID, "equal scores break ties by recency")
	assert.Equal(t, older.ID, summaries[2].ID)

	for _, s := range summaries {
		_, ok := articles[s.ArticleID]
		assert.True(t, ok, "every returned summary resolves its article")
	}
}

func TestGetRecommendationsPagination(t *testing.T) {
	service, _, db, _ := newRecommendFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Thời sự")

	for i := 0; i < 5; i++ {
		summary := createTestSummary(t, db, category.ID, defaultCreatedAt())
		row := models.SummaryRanking{
			SummaryID:  summary.ID,
			UserID:     user.ID,
			TotalScore: 0.2 + float64(i)*0.1,
		}
		assert.NoError(t, db.Create(&row).Error)
	}

	first, _, meta := service.GetRecommendations(ctx, &user.ID, nil, 2, 0)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Len(t, first, 2)
	assert.Equal(t, 5, meta.TotalCount)
	assert.True(t, meta.HasMore)

	last, _, meta := service.GetRecommendations(ctx, &user.ID, nil, 2, 4)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Len(t, last, 1)
	assert.False(t, meta.HasMore)

	_, _, meta = service.GetRecommendations(ctx, &user.ID, nil, 2, 10)
	assert.Equal(t, MetaEmpty, meta.Type)
}

func TestGetRecommendationsExclusions(t *testing.T) {
	service, _, db, _ := newRecommendFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Thể thao")

	kept := createTestSummary(t, db, category.ID, defaultCreatedAt())
	downvoted := createTestSummary(t, db, category.ID, defaultCreatedAt())
	viewing := createTestSummary(t, db, category.ID, defaultCreatedAt())
	expired := createTestSummary(t, db, category.ID, time.Now().Add(-31*24*time.Hour))

	feedback := models.SummaryFeedback{UserID: user.ID, SummaryID: downvoted.ID, IsUpvote: false}
	assert.NoError(t, db.Create(&feedback).Error)

	for _, id := range []uuid.UUID{kept.ID, downvoted.ID, viewing.ID, expired.ID} {
		row := models.SummaryRanking{SummaryID: id, UserID: user.ID, TotalScore: 0.5}
		assert.NoError(t, db.Create(&row).Error)
	}

	summaries, _, meta := service.GetRecommendations(ctx, &user.ID, &viewing.ID, 10, 0)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Len(t, summaries, 1)
	assert.Equal(t, kept.ID, summaries[0].ID)
}

func TestGetRecommendationsComputesAndPersistsFreshScores(t *testing.T) {
	service, ranker, db, cfg := newRecommendFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	tech := createTestCategory(t, db, "Công nghệ")
	sports := createTestCategory(t, db, "Thể thao")

	engaging := createTestSummary(t, db, tech.ID, defaultCreatedAt())
	boring := createTestSummary(t, db, sports.ID, defaultCreatedAt())

	// Engagement only with the tech summary.
	logView(t, db, user.ID, engaging.ID, 30)
	logClick(t, db, user.ID, engaging.ID)

	summaries, _, meta := service.GetRecommendations(ctx, &user.ID, nil, 10, 0)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Len(t, summaries, 2)
	assert.Equal(t, engaging.ID, summaries[0].ID)
	assert.Equal(t, boring.ID, summaries[1].ID)
	assert.Greater(t, summaries[0].Score, summaries[1].Score)
	assert.Equal(t, 0.0, summaries[1].Score)

	// Only the significant ranking is persisted: the sports summary
	// scored 0 and stays out of the cache.
	var rows []models.SummaryRanking
	assert.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.Equal(t, engaging.ID, rows[0].SummaryID)
	assert.GreaterOrEqual(t, rows[0].TotalScore, cfg.MinTotalScoreToSave)

	// Second read serves the cached row without re-ranking the pair.
	callsAfterFirst := ranker.callCount()
	again, _, meta := service.GetRecommendations(ctx, &user.ID, nil, 10, 0)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Equal(t, engaging.ID, again[0].ID)
	assert.InDelta(t, summaries[0].Score, again[0].Score, 1e-9)

	// The boring summary stays uncached so it is re-scored, but the
	// cached tech summary must not be.
	assert.GreaterOrEqual(t, ranker.callCount(), callsAfterFirst)
	for _, id := range ranker.lastSummaryIDs {
		assert.NotEqual(t, engaging.ID, id, "cached pairs are not sent back to the ranker")
	}
}

func TestGetRecommendationsBlendsKeywordRelevance(t *testing.T) {
	service, ranker, db, cfg := newRecommendFixture(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	category := createTestCategory(t, db, "Kinh doanh")

	relevant := createTestSummary(t, db, category.ID, defaultCreatedAt())
	irrelevant := createTestSummary(t, db, category.ID, defaultCreatedAt())

	pref := models.UserPreference{UserID: user.ID, FavoriteKeywords: []string{"chứng khoán"}}
	assert.NoError(t, db.Create(&pref).Error)

	ranker.scores[relevant.ID] = 1.0

	summaries, _, meta := service.GetRecommendations(ctx, &user.ID, nil, 10, 0)
	assert.Equal(t, MetaSuccess, meta.Type)
	assert.Len(t, summaries, 2)
	assert.Equal(t, relevant.ID, summaries[0].ID)
	assert.Equal(t, irrelevant.ID, summaries[1].ID)

	// No engagement and no search history: the whole score is the
	// favorite-keywords component.
	assert.InDelta(t, cfg.TotalScore(0, 0, 1.0), summaries[0].Score, 1e-9)
	assert.Equal(t, 0.0, summaries[1].Score)
}
