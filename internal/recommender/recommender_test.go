package recommender

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"newsrec/internal/logger"
	"newsrec/internal/models"

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

// fakeRanker serves canned relevance scores and records every call, so
// tests can assert both the scores propagated and the number of
// full-text round trips.
type fakeRanker struct {
	mu     sync.Mutex
	scores map[uuid.UUID]float64
	calls  int

	lastSummaryIDs []uuid.UUID
	lastKeywords   []string
}

func newFakeRanker(scores map[uuid.UUID]float64) *fakeRanker {
	if scores == nil {
		scores = make(map[uuid.UUID]float64)
	}
	return &fakeRanker{scores: scores}
}

func (f *fakeRanker) Rank(_ context.Context, summaryIDs []uuid.UUID, keywords []string) (map[uuid.UUID]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.lastSummaryIDs = summaryIDs
	f.lastKeywords = keywords

	// Same contract as the real ranker: a blank keyword set matches
	// nothing.
	result := make(map[uuid.UUID]float64)
	if len(CleanKeywords(keywords)) == 0 {
		return result, nil
	}
	for _, id := range summaryIDs {
		if score, ok := f.scores[id]; ok {
			result[id] = score
		}
	}
	return result, nil
}

func (f *fakeRanker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// syncDispatcher runs every job inline so tests observe deferred work
// deterministically.
type syncDispatcher struct {
	debouncedKeys []string
}

func (d *syncDispatcher) Enqueue(_ string, run func(ctx context.Context)) bool {
	run(context.Background())
	return true
}

func (d *syncDispatcher) EnqueueDebounced(key string, run func(ctx context.Context)) {
	d.debouncedKeys = append(d.debouncedKeys, key)
	run(context.Background())
}

func createTestUser(t *testing.T, db *gorm.DB) models.User {
	user := models.User{
		ID:    uuid.New(),
		Email: fmt.Sprintf("%s@test.local", uuid.NewString()[:8]),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	category := models.Category{ID: uuid.New(), Name: name}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return category
}

// createTestSummary creates an article in the given category along with
// one summary and returns the summary. createdAt controls candidate
// window membership.
func createTestSummary(t *testing.T, db *gorm.DB, categoryID uuid.UUID, createdAt time.Time) models.Summary {
	article := models.Article{
		ID:    uuid.New(),
		Title: "test article",
		URL:   fmt.Sprintf("https://test.local/%s", uuid.NewString()),
	}
	if err := db.Create(&article).Error; err != nil {
		t.Fatalf("Failed to create test article: %v", err)
	}

	if categoryID != uuid.Nil {
		relation := models.ArticleCategory{ArticleID: article.ID, CategoryID: categoryID}
		if err := db.Create(&relation).Error; err != nil {
			t.Fatalf("Failed to link article to category: %v", err)
		}
	}

	summary := models.Summary{
		ID:          uuid.New(),
		ArticleID:   article.ID,
		SummaryText: "test summary",
	}
	if err := db.Create(&summary).Error; err != nil {
		t.Fatalf("Failed to create test summary: %v", err)
	}

	if !createdAt.IsZero() {
		err := db.Model(&models.Summary{}).Where("id = ?", summary.ID).Update("created_at", createdAt).Error
		if err != nil {
			t.Fatalf("Failed to backdate summary: %v", err)
		}
		summary.CreatedAt = createdAt
	}
	return summary
}

func logView(t *testing.T, db *gorm.DB, userID, summaryID uuid.UUID, seconds int) {
	viewLog := models.SummaryViewLog{UserID: &userID, SummaryID: summaryID, DurationSeconds: seconds}
	if err := db.Create(&viewLog).Error; err != nil {
		t.Fatalf("Failed to create view log: %v", err)
	}
}

func logClick(t *testing.T, db *gorm.DB, userID, summaryID uuid.UUID) {
	clickLog := models.SummaryClickLog{UserID: &userID, SummaryID: summaryID}
	if err := db.Create(&clickLog).Error; err != nil {
		t.Fatalf("Failed to create click log: %v", err)
	}
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}

// defaultCreatedAt keeps fixture summaries safely inside the candidate
// window.
func defaultCreatedAt() time.Time {
	return time.Now().Add(-time.Hour)
}
