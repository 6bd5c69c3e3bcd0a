package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"newsrec/internal/logger"
	"newsrec/internal/models"
	"newsrec/internal/recommender"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// noMatchRanker scores nothing; service tests care about the write
// paths, not full-text relevance.
type noMatchRanker struct{}

func (noMatchRanker) Rank(context.Context, []uuid.UUID, []string) (map[uuid.UUID]float64, error) {
	return map[uuid.UUID]float64{}, nil
}

type inlineDispatcher struct{}

func (inlineDispatcher) Enqueue(_ string, run func(ctx context.Context)) bool {
	run(context.Background())
	return true
}

func (inlineDispatcher) EnqueueDebounced(_ string, run func(ctx context.Context)) {
	run(context.Background())
}

func newTestHooks(db *gorm.DB) *recommender.Hooks {
	cfg := recommender.DefaultScoringConfig()
	log := logger.NewNop()
	interactions := recommender.NewInteractionService(db, cfg, log, nil)
	scorer := recommender.NewLogNormScorer(interactions, cfg)
	ranking := recommender.NewRankingService(db, cfg, scorer, noMatchRanker{}, log)
	return recommender.NewHooks(db, cfg, interactions, ranking, inlineDispatcher{}, log)
}

func createUser(t *testing.T, db *gorm.DB) models.User {
	user := models.User{
		ID:    uuid.New(),
		Email: fmt.Sprintf("%s@test.local", uuid.NewString()[:8]),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createSummary(t *testing.T, db *gorm.DB) models.Summary {
	article := models.Article{
		ID:  uuid.New(),
		URL: fmt.Sprintf("https://test.local/%s", uuid.NewString()),
	}
	if err := db.Create(&article).Error; err != nil {
		t.Fatalf("Failed to create test article: %v", err)
	}

	summary := models.Summary{ID: uuid.New(), ArticleID: article.ID, SummaryText: "test"}
	if err := db.Create(&summary).Error; err != nil {
		t.Fatalf("Failed to create test summary: %v", err)
	}
	return summary
}

func backdate(t *testing.T, db *gorm.DB, entry *models.SearchHistory, at time.Time) {
	err := db.Model(&models.SearchHistory{}).Where("id = ?", entry.ID).Update("created_at", at).Error
	if err != nil {
		t.Fatalf("Failed to backdate search history: %v", err)
	}
}
