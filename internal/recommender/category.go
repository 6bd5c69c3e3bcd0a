package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"newsrec/internal/cache"
	"newsrec/internal/logger"

	"github.com/google/uuid"
)

// CategoryScorer converts a user's engagement with a category into a
// bounded [0,1] score. Two strategies exist; one is selected at wiring
// time.
type CategoryScorer interface {
	ScoreCategory(ctx context.Context, userID, categoryID uuid.UUID) (float64, error)
	// ScoreCategories scores many categories in one pass, reusing any
	// per-user state so the read path avoids N aggregate scans.
	ScoreCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) (map[uuid.UUID]float64, error)
	CacheInvalidator
}

// LogNormScorer is the primary strategy: a saturating log curve over a
// weighted engagement value. It needs no cross-category distribution,
// so scores are independent per (user, category) and nothing is cached.
type LogNormScorer struct {
	src EngagementSource
	cfg ScoringConfig
}

func NewLogNormScorer(src EngagementSource, cfg ScoringConfig) *LogNormScorer {
	return &LogNormScorer{src: src, cfg: cfg}
}

func (s *LogNormScorer) ScoreCategory(ctx context.Context, userID, categoryID uuid.UUID) (float64, error) {
	engagement, err := s.src.CategoryEngagementFor(ctx, userID, categoryID)
	if err != nil {
		return 0, err
	}
	return s.ScoreFromEngagement(engagement), nil
}

func (s *LogNormScorer) ScoreCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	engagements, err := s.src.AggregateCategoryEngagement(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID]CategoryEngagement, len(engagements))
	for _, e := range engagements {
		byCategory[e.CategoryID] = e
	}

	scores := make(map[uuid.UUID]float64, len(categoryIDs))
	for _, id := range categoryIDs {
		scores[id] = s.ScoreFromEngagement(byCategory[id])
	}
	return scores, nil
}

// ScoreFromEngagement maps an engagement aggregate onto [0,1]:
// min(1, log1p(value)/log1p(target)). Monotonic in both duration and
// clicks, saturating at the configured target engagement.
func (s *LogNormScorer) ScoreFromEngagement(e CategoryEngagement) float64 {
	value := s.cfg.DurationWeight*float64(e.TotalDuration) + s.cfg.ClickWeight*float64(e.ClickCount)
	if value <= 0 {
		return 0.0
	}
	normalized := math.Log1p(value) / math.Log1p(s.cfg.TargetEngagement)
	return math.Min(1.0, normalized)
}

// InvalidateUser is a no-op: log-normalization derives nothing from
// other categories, so there is no per-user state to drop.
func (s *LogNormScorer) InvalidateUser(context.Context, uuid.UUID) {}

// softmaxStats is the cached per-user distribution summary. Maxes are
// subtracted before exponentiating to avoid overflow.
type softmaxStats struct {
	MaxDuration    float64 `json:"max_d"`
	MaxClicks      float64 `json:"max_c"`
	SumExpDuration float64 `json:"sum_exp_d"`
	SumExpClicks   float64 `json:"sum_exp_c"`
}

// SoftmaxScorer is the alternative strategy: softmax of the user's
// duration and click distributions over every category they touched.
// Because one new event shifts the whole distribution, the sums and
// maxes are cached with a short TTL and invalidated on every logged
// view or click for the user.
type SoftmaxScorer struct {
	src   EngagementSource
	stats cache.StatsCache
	cfg   ScoringConfig
	log   *logger.Logger
}

func NewSoftmaxScorer(src EngagementSource, stats cache.StatsCache, cfg ScoringConfig, log *logger.Logger) *SoftmaxScorer {
	return &SoftmaxScorer{src: src, stats: stats, cfg: cfg, log: log}
}

func softmaxStatsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_%s_softmax_cat_stats", userID)
}

func (s *SoftmaxScorer) ScoreCategory(ctx context.Context, userID, categoryID uuid.UUID) (float64, error) {
	engagement, err := s.src.CategoryEngagementFor(ctx, userID, categoryID)
	if err != nil {
		return 0, err
	}

	// Only a touched category overrides the distribution. Injecting a
	// zero aggregate would make it the sole entry for a user with no
	// engagement at all, scoring an untouched category 1.0 where the
	// batch path scores it 0.
	var current *CategoryEngagement
	if engagement.TotalDuration > 0 || engagement.ClickCount > 0 {
		current = &engagement
	}

	stats, err := s.loadOrComputeStats(ctx, userID, current)
	if err != nil {
		return 0, err
	}
	return s.scoreAgainst(stats, engagement), nil
}

func (s *SoftmaxScorer) ScoreCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	engagements, err := s.src.AggregateCategoryEngagement(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID]CategoryEngagement, len(engagements))
	for _, e := range engagements {
		byCategory[e.CategoryID] = e
	}

	stats, err := s.loadOrComputeStats(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	scores := make(map[uuid.UUID]float64, len(categoryIDs))
	for _, id := range categoryIDs {
		scores[id] = s.scoreAgainst(stats, byCategory[id])
	}
	return scores, nil
}

func (s *SoftmaxScorer) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if err := s.stats.Delete(ctx, softmaxStatsKey(userID)); err != nil {
		s.log.Warn("failed to invalidate softmax stats", "user_id", userID, "error", err)
	}
}

// loadOrComputeStats returns the cached distribution stats, rebuilding
// them from the interaction logs on a miss. When current overrides a
// category's aggregate (the fast path just recomputed it), the fresh
// value replaces the logged one before summing.
func (s *SoftmaxScorer) loadOrComputeStats(ctx context.Context, userID uuid.UUID, current *CategoryEngagement) (*softmaxStats, error) {
	key := softmaxStatsKey(userID)

	if raw, ok, err := s.stats.Get(ctx, key); err == nil && ok {
		var cached softmaxStats
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	} else if err != nil {
		s.log.Warn("softmax stats cache read failed", "user_id", userID, "error", err)
	}

	engagements, err := s.src.AggregateCategoryEngagement(ctx, userID)
	if err != nil {
		return nil, err
	}

	if current != nil {
		replaced := false
		for i := range engagements {
			if engagements[i].CategoryID == current.CategoryID {
				engagements[i] = *current
				replaced = true
				break
			}
		}
		if !replaced {
			engagements = append(engagements, *current)
		}
	}

	if len(engagements) == 0 {
		return &softmaxStats{}, nil
	}

	stats := &softmaxStats{}
	for _, e := range engagements {
		stats.MaxDuration = math.Max(stats.MaxDuration, float64(e.TotalDuration))
		stats.MaxClicks = math.Max(stats.MaxClicks, float64(e.ClickCount))
	}
	for _, e := range engagements {
		stats.SumExpDuration += math.Exp(float64(e.TotalDuration) - stats.MaxDuration)
		stats.SumExpClicks += math.Exp(float64(e.ClickCount) - stats.MaxClicks)
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := s.stats.Set(ctx, key, raw, s.cfg.SoftmaxCacheTTL); err != nil {
			s.log.Warn("softmax stats cache write failed", "user_id", userID, "error", err)
		}
	}

	return stats, nil
}

func (s *SoftmaxScorer) scoreAgainst(stats *softmaxStats, e CategoryEngagement) float64 {
	if stats.SumExpDuration <= 0 && stats.SumExpClicks <= 0 {
		return 0.0
	}

	var durationScore, clickScore float64
	if stats.SumExpDuration > 0 {
		durationScore = math.Exp(float64(e.TotalDuration)-stats.MaxDuration) / stats.SumExpDuration
	}
	if stats.SumExpClicks > 0 {
		clickScore = math.Exp(float64(e.ClickCount)-stats.MaxClicks) / stats.SumExpClicks
	}
	return 0.5 * (durationScore + clickScore)
}
