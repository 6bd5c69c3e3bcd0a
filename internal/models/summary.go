package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary represents a generated short text for one article. The
// search_vector column behind full-text ranking is created and kept
// up to date by a Postgres trigger migration, so it is deliberately
// not mapped here.
type Summary struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	ArticleID   uuid.UUID `json:"article_id" db:"article_id" gorm:"index;not null"`
	SummaryText string    `json:"summary_text" db:"summary_text" gorm:"type:text"`
	Upvotes     int       `json:"upvotes" db:"upvotes" gorm:"default:0"`
	Downvotes   int       `json:"downvotes" db:"downvotes" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// SummaryFeedback records a user's upvote or downvote on a summary
type SummaryFeedback struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_feedback_user_summary;not null"`
	SummaryID uuid.UUID `json:"summary_id" db:"summary_id" gorm:"uniqueIndex:idx_feedback_user_summary;not null"`
	IsUpvote  bool      `json:"is_upvote" db:"is_upvote"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

func (Summary) TableName() string {
	return "summaries"
}

func (SummaryFeedback) TableName() string {
	return "summary_feedbacks"
}
