// Package models contains all data models for the newsrec application
package models

import (
	"gorm.io/gorm"
)

// AllModels returns a slice of all model types for database migrations
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&UserPreference{},
		&SearchHistory{},
		&Category{},
		&Article{},
		&ArticleCategory{},
		&ArticleStats{},
		&Summary{},
		&SummaryFeedback{},
		&SummaryViewLog{},
		&SummaryClickLog{},
		&SummaryRanking{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
