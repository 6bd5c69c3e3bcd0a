package services

import (
	"context"
	"errors"
	"fmt"

	"newsrec/internal/logger"
	"newsrec/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedbackService records summary up/downvotes and maintains the
// denormalized counters on the summary row. Downvotes exclude a summary
// from the user's future recommendations.
type FeedbackService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackService(db *gorm.DB, log *logger.Logger) *FeedbackService {
	return &FeedbackService{db: db, log: log}
}

// SetFeedback upserts the user's vote on a summary and adjusts the
// summary's counters accordingly.
func (s *FeedbackService) SetFeedback(ctx context.Context, userID, summaryID uuid.UUID, isUpvote bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var summary models.Summary
		if err := tx.First(&summary, "id = ?", summaryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("summary %s not found", summaryID)
			}
			return err
		}

		var existing models.SummaryFeedback
		err := tx.Where("user_id = ? AND summary_id = ?", userID, summaryID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			feedback := models.SummaryFeedback{UserID: userID, SummaryID: summaryID, IsUpvote: isUpvote}
			if err := tx.Create(&feedback).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.IsUpvote == isUpvote:
			return nil
		default:
			if err := tx.Model(&existing).Update("is_upvote", isUpvote).Error; err != nil {
				return err
			}
			// Vote flipped: retract the old counter.
			retract := "upvotes"
			if isUpvote {
				retract = "downvotes"
			}
			if err := tx.Model(&summary).Update(retract, gorm.Expr(retract+" - 1")).Error; err != nil {
				return err
			}
		}

		bump := "downvotes"
		if isUpvote {
			bump = "upvotes"
		}
		return tx.Model(&summary).Update(bump, gorm.Expr(bump+" + 1")).Error
	})
}

// DownvotedSummaryIDs returns the summaries the user has downvoted.
func (s *FeedbackService) DownvotedSummaryIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.SummaryFeedback{}).
		Where("user_id = ? AND is_upvote = ?", userID, false).
		Pluck("summary_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load downvoted summaries: %w", err)
	}
	return ids, nil
}
