package recommender

import "time"

// ScoringConfig holds every tunable the ranking pipeline uses. Tests
// construct their own instead of mutating package state.
type ScoringConfig struct {
	// ViewDurationThreshold is the minimum view duration, in seconds,
	// for a view to qualify as an engagement signal.
	ViewDurationThreshold int

	// DurationWeight and ClickWeight convert raw engagement into a
	// single engagement value for the log-normalization scorer.
	DurationWeight float64
	ClickWeight    float64

	// TargetEngagement is the engagement value that maps to a category
	// score of 1.0.
	TargetEngagement float64

	// Component weights. Must sum to 1.0.
	CategoryWeight         float64
	SearchHistoryWeight    float64
	FavoriteKeywordsWeight float64

	// MinTotalScoreToSave is the significance threshold: rankings below
	// it are not persisted.
	MinTotalScoreToSave float64

	// CandidateWindow bounds which summaries are eligible for
	// recommendation and for category fan-out re-ranking.
	CandidateWindow time.Duration

	// SearchHistoryWindow and SearchHistoryLimit bound the recent-query
	// keyword set.
	SearchHistoryWindow time.Duration
	SearchHistoryLimit  int

	// SoftmaxCacheTTL bounds staleness of the per-user softmax stats.
	SoftmaxCacheTTL time.Duration
}

// DefaultScoringConfig returns the production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ViewDurationThreshold:  3,
		DurationWeight:         0.1,
		ClickWeight:            1.0,
		TargetEngagement:       20.0,
		CategoryWeight:         0.5,
		SearchHistoryWeight:    0.3,
		FavoriteKeywordsWeight: 0.2,
		MinTotalScoreToSave:    0.1,
		CandidateWindow:        30 * 24 * time.Hour,
		SearchHistoryWindow:    7 * 24 * time.Hour,
		SearchHistoryLimit:     5,
		SoftmaxCacheTTL:        5 * time.Minute,
	}
}

// TotalScore combines the three component scores into the weighted
// total that gets persisted and sorted on.
func (c ScoringConfig) TotalScore(categoryScore, searchHistoryScore, favoriteKeywordsScore float64) float64 {
	return categoryScore*c.CategoryWeight +
		searchHistoryScore*c.SearchHistoryWeight +
		favoriteKeywordsScore*c.FavoriteKeywordsWeight
}
