package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User represents a registered reader
type User struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Email       string    `json:"email" db:"email" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name" db:"display_name"`
	IsActive    bool      `json:"is_active" db:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
	LastSeenAt  time.Time `json:"last_seen_at" db:"last_seen_at"`
}

// UserPreference holds a user's declared favorite keywords
type UserPreference struct {
	ID               uuid.UUID      `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID           uuid.UUID      `json:"user_id" db:"user_id" gorm:"uniqueIndex;not null"`
	FavoriteKeywords pq.StringArray `json:"favorite_keywords" db:"favorite_keywords" gorm:"type:text[]"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// SearchHistory is one search query issued by a user
type SearchHistory struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"index;not null"`
	Query     string    `json:"query" db:"query" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime;index"`
}

func (User) TableName() string {
	return "users"
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

func (SearchHistory) TableName() string {
	return "search_histories"
}
