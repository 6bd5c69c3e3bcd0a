package recommender

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostgresRanker ranks summaries with ts_rank over the pre-built
// search_vector column (summary text weighted A, article title weighted
// B at index-build time). All keywords are OR-combined into a single
// query so a batch of summaries costs one round trip.
type PostgresRanker struct {
	db           *gorm.DB
	searchConfig string
}

// NewPostgresRanker creates a ranker using the given text search
// configuration (e.g. "vietnamese", "simple").
func NewPostgresRanker(db *gorm.DB, searchConfig string) *PostgresRanker {
	if searchConfig == "" {
		searchConfig = "simple"
	}
	return &PostgresRanker{db: db, searchConfig: searchConfig}
}

func (r *PostgresRanker) Rank(ctx context.Context, summaryIDs []uuid.UUID, keywords []string) (map[uuid.UUID]float64, error) {
	ranks := make(map[uuid.UUID]float64)

	cleaned := CleanKeywords(keywords)
	if len(cleaned) == 0 || len(summaryIDs) == 0 {
		return ranks, nil
	}

	queryExpr, args := r.buildQueryExpr(cleaned)

	type row struct {
		ID   uuid.UUID
		Rank float64
	}
	var rows []row

	sql := fmt.Sprintf(
		"SELECT id, ts_rank(search_vector, %s) AS rank FROM summaries WHERE id IN ? AND search_vector @@ (%s)",
		queryExpr, queryExpr,
	)
	// The expression appears twice, so the bind arguments do too.
	allArgs := make([]interface{}, 0, len(args)*2+1)
	allArgs = append(allArgs, args...)
	allArgs = append(allArgs, summaryIDs)
	allArgs = append(allArgs, args...)

	if err := r.db.WithContext(ctx).Raw(sql, allArgs...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("full-text rank query failed: %w", err)
	}

	for _, row := range rows {
		ranks[row.ID] = row.Rank
	}
	return ranks, nil
}

// buildQueryExpr OR-combines one plainto_tsquery per keyword.
func (r *PostgresRanker) buildQueryExpr(keywords []string) (string, []interface{}) {
	parts := make([]string, len(keywords))
	args := make([]interface{}, len(keywords))
	for i, kw := range keywords {
		parts[i] = fmt.Sprintf("plainto_tsquery('%s', ?)", r.searchConfig)
		args[i] = kw
	}
	return strings.Join(parts, " || "), args
}
