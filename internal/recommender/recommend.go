package recommender

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"newsrec/internal/logger"
	"newsrec/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Meta result types for GetRecommendations.
const (
	MetaSuccess      = "success"
	MetaEmpty        = "empty"
	MetaAuthRequired = "auth_required"
	MetaError        = "error"
)

// Meta describes the outcome of a recommendation request.
type Meta struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	TotalCount int    `json:"total_count,omitempty"`
	HasMore    bool   `json:"has_more,omitempty"`
}

// ScoredSummary pairs a summary with its personalization score.
type ScoredSummary struct {
	models.Summary
	Score float64 `json:"score"`
}

// RecommendService is the read path: it assembles candidates, resolves
// cached scores, batch-computes the rest, sorts and paginates.
type RecommendService struct {
	db     *gorm.DB
	cfg    ScoringConfig
	scorer CategoryScorer
	ranker Ranker
	log    *logger.Logger
}

func NewRecommendService(db *gorm.DB, cfg ScoringConfig, scorer CategoryScorer, ranker Ranker, log *logger.Logger) *RecommendService {
	return &RecommendService{db: db, cfg: cfg, scorer: scorer, ranker: ranker, log: log}
}

// GetRecommendations returns the user's personalized summary list,
// sorted by (score desc, created_at desc), with the page's source
// articles resolved in one batch. Anonymous callers get an
// auth_required meta, never an error.
func (s *RecommendService) GetRecommendations(ctx context.Context, userID *uuid.UUID, excludeSummaryID *uuid.UUID, limit, offset int) ([]ScoredSummary, map[uuid.UUID]models.Article, Meta) {
	if userID == nil {
		return nil, nil, Meta{
			Type:    MetaAuthRequired,
			Message: "Cần đăng nhập để nhận đề xuất cá nhân hóa",
		}
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	candidates, err := s.candidateSummaries(ctx, *userID, excludeSummaryID)
	if err != nil {
		s.log.Error("failed to load candidate summaries", "user_id", *userID, "error", err)
		return nil, nil, Meta{Type: MetaError, Message: "failed to load recommendations"}
	}
	if len(candidates) == 0 {
		return nil, nil, Meta{Type: MetaEmpty, Message: "Không có đề xuất nào khả dụng"}
	}

	scored, err := s.scoreCandidates(ctx, *userID, candidates)
	if err != nil {
		s.log.Error("failed to score candidates", "user_id", *userID, "error", err)
		return nil, nil, Meta{Type: MetaError, Message: "failed to load recommendations"}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})

	totalCount := len(scored)
	page := paginate(scored, offset, limit)
	if len(page) == 0 {
		return nil, nil, Meta{Type: MetaEmpty, Message: "Không có đề xuất nào khả dụng"}
	}

	articles, err := s.articlesFor(ctx, page)
	if err != nil {
		s.log.Error("failed to load articles for page", "user_id", *userID, "error", err)
		return nil, nil, Meta{Type: MetaError, Message: "failed to load recommendations"}
	}

	return page, articles, Meta{
		Type:       MetaSuccess,
		Message:    "Đã lấy đề xuất thành công",
		TotalCount: totalCount,
		HasMore:    totalCount > offset+limit,
	}
}

// candidateSummaries returns every summary in the trailing candidate
// window, minus downvoted summaries and the currently viewed one.
func (s *RecommendService) candidateSummaries(ctx context.Context, userID uuid.UUID, excludeSummaryID *uuid.UUID) ([]models.Summary, error) {
	var downvoted []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.SummaryFeedback{}).
		Where("user_id = ? AND is_upvote = ?", userID, false).
		Pluck("summary_id", &downvoted).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load downvoted summaries: %w", err)
	}

	query := s.db.WithContext(ctx).
		Where("created_at >= ?", time.Now().Add(-s.cfg.CandidateWindow))
	if len(downvoted) > 0 {
		query = query.Where("id NOT IN ?", downvoted)
	}
	if excludeSummaryID != nil {
		query = query.Where("id <> ?", *excludeSummaryID)
	}

	var candidates []models.Summary
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to load summaries: %w", err)
	}
	return candidates, nil
}

// scoreCandidates partitions candidates into cached and uncached, batch
// scores the uncached set, and lazily persists any newly significant
// rankings (ignore-on-conflict: a concurrent request may have raced us
// to the same rows).
func (s *RecommendService) scoreCandidates(ctx context.Context, userID uuid.UUID, candidates []models.Summary) ([]ScoredSummary, error) {
	candidateIDs := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		candidateIDs[i] = c.ID
	}

	var rankings []models.SummaryRanking
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND summary_id IN ?", userID, candidateIDs).
		Find(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cached rankings: %w", err)
	}
	cached := make(map[uuid.UUID]float64, len(rankings))
	for _, r := range rankings {
		cached[r.SummaryID] = r.TotalScore
	}

	var uncached []models.Summary
	for _, c := range candidates {
		if _, ok := cached[c.ID]; !ok {
			uncached = append(uncached, c)
		}
	}

	fresh := make(map[uuid.UUID]components)
	if len(uncached) > 0 {
		fresh, err = s.scoreBatch(ctx, userID, uncached)
		if err != nil {
			// Degrade: candidates without a cached row score 0 rather
			// than failing the whole read.
			s.log.Error("batch scoring failed, serving degraded scores", "user_id", userID, "error", err)
			fresh = make(map[uuid.UUID]components)
		}
		s.persistSignificant(ctx, userID, fresh)
	}

	scored := make([]ScoredSummary, len(candidates))
	for i, c := range candidates {
		score, ok := cached[c.ID]
		if !ok {
			score = fresh[c.ID].total
		}
		scored[i] = ScoredSummary{Summary: c, Score: score}
	}
	return scored, nil
}

type components struct {
	category         float64
	searchHistory    float64
	favoriteKeywords float64
	total            float64
}

// scoreBatch computes all three component scores for the uncached
// candidates in three batched queries: one rank per keyword source and
// one category-score pass.
func (s *RecommendService) scoreBatch(ctx context.Context, userID uuid.UUID, summaries []models.Summary) (map[uuid.UUID]components, error) {
	summaryIDs := make([]uuid.UUID, len(summaries))
	articleIDs := make([]uuid.UUID, 0, len(summaries))
	for i, sum := range summaries {
		summaryIDs[i] = sum.ID
		articleIDs = append(articleIDs, sum.ArticleID)
	}

	historyKeywords, err := s.recentSearchKeywords(ctx, userID)
	if err != nil {
		return nil, err
	}
	favoriteKeywords, err := s.favoriteKeywords(ctx, userID)
	if err != nil {
		return nil, err
	}

	historyScores, err := s.ranker.Rank(ctx, summaryIDs, historyKeywords)
	if err != nil {
		return nil, fmt.Errorf("search-history rank failed: %w", err)
	}
	favoriteScores, err := s.ranker.Rank(ctx, summaryIDs, favoriteKeywords)
	if err != nil {
		return nil, fmt.Errorf("favorite-keywords rank failed: %w", err)
	}

	categoryByArticle, err := s.categoriesForArticles(ctx, articleIDs)
	if err != nil {
		return nil, err
	}
	uniqueCategories := make(map[uuid.UUID]struct{})
	for _, categoryID := range categoryByArticle {
		uniqueCategories[categoryID] = struct{}{}
	}
	categoryIDs := make([]uuid.UUID, 0, len(uniqueCategories))
	for id := range uniqueCategories {
		categoryIDs = append(categoryIDs, id)
	}

	categoryScores := make(map[uuid.UUID]float64)
	if len(categoryIDs) > 0 {
		categoryScores, err = s.scorer.ScoreCategories(ctx, userID, categoryIDs)
		if err != nil {
			return nil, fmt.Errorf("batched category scores failed: %w", err)
		}
	}

	result := make(map[uuid.UUID]components, len(summaries))
	for _, sum := range summaries {
		c := components{
			searchHistory:    historyScores[sum.ID],
			favoriteKeywords: favoriteScores[sum.ID],
		}
		if categoryID, ok := categoryByArticle[sum.ArticleID]; ok {
			c.category = categoryScores[categoryID]
		}
		c.total = s.cfg.TotalScore(c.category, c.searchHistory, c.favoriteKeywords)
		result[sum.ID] = c
	}
	return result, nil
}

// persistSignificant bulk-inserts the freshly scored rankings that
// clear the significance threshold. Conflicts are ignored: whoever got
// there first computed from the same logs.
func (s *RecommendService) persistSignificant(ctx context.Context, userID uuid.UUID, fresh map[uuid.UUID]components) {
	var rows []models.SummaryRanking
	for summaryID, c := range fresh {
		if c.total < s.cfg.MinTotalScoreToSave {
			continue
		}
		rows = append(rows, models.SummaryRanking{
			SummaryID:             summaryID,
			UserID:                userID,
			CategoryScore:         c.category,
			SearchHistoryScore:    c.searchHistory,
			FavoriteKeywordsScore: c.favoriteKeywords,
			TotalScore:            c.total,
		})
	}
	if len(rows) == 0 {
		return
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		s.log.Error("failed to persist fresh rankings", "user_id", userID, "error", err)
	}
}

func (s *RecommendService) recentSearchKeywords(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var queries []string
	err := s.db.WithContext(ctx).
		Model(&models.SearchHistory{}).
		Where("user_id = ? AND created_at >= ?", userID, time.Now().Add(-s.cfg.SearchHistoryWindow)).
		Group("query").
		Order("MAX(created_at) DESC").
		Limit(s.cfg.SearchHistoryLimit).
		Pluck("query", &queries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	return queries, nil
}

func (s *RecommendService) favoriteKeywords(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var pref models.UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user preference: %w", err)
	}
	return pref.FavoriteKeywords, nil
}

func (s *RecommendService) categoriesForArticles(ctx context.Context, articleIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	var relations []models.ArticleCategory
	err := s.db.WithContext(ctx).
		Where("article_id IN ?", articleIDs).
		Order("created_at ASC").
		Find(&relations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load article categories: %w", err)
	}

	// First category wins when an article has several.
	byArticle := make(map[uuid.UUID]uuid.UUID)
	for _, rel := range relations {
		if _, ok := byArticle[rel.ArticleID]; !ok {
			byArticle[rel.ArticleID] = rel.CategoryID
		}
	}
	return byArticle, nil
}

func (s *RecommendService) articlesFor(ctx context.Context, page []ScoredSummary) (map[uuid.UUID]models.Article, error) {
	articleIDs := make([]uuid.UUID, 0, len(page))
	seen := make(map[uuid.UUID]struct{})
	for _, item := range page {
		if _, ok := seen[item.ArticleID]; !ok {
			seen[item.ArticleID] = struct{}{}
			articleIDs = append(articleIDs, item.ArticleID)
		}
	}

	var articles []models.Article
	if err := s.db.WithContext(ctx).Where("id IN ?", articleIDs).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}

	byID := make(map[uuid.UUID]models.Article, len(articles))
	for _, article := range articles {
		byID[article.ID] = article
	}
	return byID, nil
}

func paginate(scored []ScoredSummary, offset, limit int) []ScoredSummary {
	if offset >= len(scored) {
		return nil
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}
