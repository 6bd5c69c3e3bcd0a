package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a news category (e.g. "Thời sự", "Thể thao")
type Category struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" db:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// Article represents a crawled news article
type Article struct {
	ID          uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" db:"title" gorm:"size:500;index"`
	Content     string     `json:"content" db:"content" gorm:"type:text"`
	URL         string     `json:"url" db:"url" gorm:"uniqueIndex;not null"`
	SourceID    uuid.UUID  `json:"source_id" db:"source_id"`
	PublishedAt *time.Time `json:"published_at" db:"published_at" gorm:"index"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Summaries []Summary `json:"summaries,omitempty" gorm:"foreignKey:ArticleID"`
}

// ArticleCategory links an article to a category (many-to-many)
type ArticleCategory struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	ArticleID  uuid.UUID `json:"article_id" db:"article_id" gorm:"uniqueIndex:idx_article_category;not null"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id" gorm:"uniqueIndex:idx_article_category;index;not null"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// ArticleStats holds aggregate engagement counters for an article
type ArticleStats struct {
	ArticleID    uuid.UUID `json:"article_id" db:"article_id" gorm:"primaryKey;type:uuid"`
	ViewCount    int       `json:"view_count" db:"view_count" gorm:"default:0"`
	CommentCount int       `json:"comment_count" db:"comment_count" gorm:"default:0"`
	SaveCount    int       `json:"save_count" db:"save_count" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName methods
func (Category) TableName() string {
	return "categories"
}

func (Article) TableName() string {
	return "articles"
}

func (ArticleCategory) TableName() string {
	return "article_categories"
}

func (ArticleStats) TableName() string {
	return "article_stats"
}
