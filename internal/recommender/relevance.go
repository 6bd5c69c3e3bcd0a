package recommender

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Ranker scores summaries against a keyword set using a full-text
// relevance primitive. Implementations return a rank per matching
// summary; absent entries mean a relevance of 0, never an error.
type Ranker interface {
	Rank(ctx context.Context, summaryIDs []uuid.UUID, keywords []string) (map[uuid.UUID]float64, error)
}

// CleanKeywords drops empty and whitespace-only entries. An empty
// result means no full-text query should be issued at all.
func CleanKeywords(keywords []string) []string {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if trimmed := strings.TrimSpace(kw); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
