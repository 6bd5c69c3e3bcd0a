package models

import (
	"time"

	"github.com/google/uuid"
)

// SummaryViewLog records one view event. UserID is nullable: anonymous
// views bump article stats elsewhere but are never logged for ranking.
// Rows are append-only.
type SummaryViewLog struct {
	ID              uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID          *uuid.UUID `json:"user_id" db:"user_id" gorm:"index:idx_view_user_summary"`
	SummaryID       uuid.UUID  `json:"summary_id" db:"summary_id" gorm:"index:idx_view_user_summary;not null"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds" gorm:"not null"`
	ViewedAt        time.Time  `json:"viewed_at" db:"viewed_at" gorm:"autoCreateTime;index"`
}

// SummaryClickLog records one click-through event. Append-only.
type SummaryClickLog struct {
	ID        uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    *uuid.UUID `json:"user_id" db:"user_id" gorm:"index:idx_click_user_summary"`
	SummaryID uuid.UUID  `json:"summary_id" db:"summary_id" gorm:"index:idx_click_user_summary;not null"`
	ClickedAt time.Time  `json:"clicked_at" db:"clicked_at" gorm:"autoCreateTime;index"`
}

// SummaryRanking is the sparse per-(user, summary) score cache. At most
// one row per pair; rows whose total score falls below the significance
// threshold are never persisted.
type SummaryRanking struct {
	ID                    uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	SummaryID             uuid.UUID `json:"summary_id" db:"summary_id" gorm:"uniqueIndex:idx_ranking_summary_user;not null"`
	UserID                uuid.UUID `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_ranking_summary_user;index:idx_ranking_user_score;not null"`
	CategoryScore         float64   `json:"category_score" db:"category_score" gorm:"default:0.0"`
	SearchHistoryScore    float64   `json:"search_history_score" db:"search_history_score" gorm:"default:0.0"`
	FavoriteKeywordsScore float64   `json:"favorite_keywords_score" db:"favorite_keywords_score" gorm:"default:0.0"`
	TotalScore            float64   `json:"total_score" db:"total_score" gorm:"default:0.0;index:idx_ranking_user_score"`
	CreatedAt             time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

func (SummaryViewLog) TableName() string {
	return "summary_view_logs"
}

func (SummaryClickLog) TableName() string {
	return "summary_click_logs"
}

func (SummaryRanking) TableName() string {
	return "summary_rankings"
}
