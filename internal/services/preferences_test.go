package services

import (
	"context"
	"testing"

	"newsrec/internal/logger"
	"newsrec/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSetFavoriteKeywords(t *testing.T) {
	db := setupTestDB(t)
	service := NewPreferenceService(db, newTestHooks(db), logger.NewNop())
	ctx := context.Background()

	user := createUser(t, db)

	t.Run("creates the preference row", func(t *testing.T) {
		err := service.SetFavoriteKeywords(ctx, user.ID, []string{"bóng đá", "  công nghệ  ", ""})
		assert.NoError(t, err)

		keywords, err := service.GetFavoriteKeywords(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, []string{"bóng đá", "công nghệ"}, keywords)
	})

	t.Run("replaces on second write", func(t *testing.T) {
		err := service.SetFavoriteKeywords(ctx, user.ID, []string{"chứng khoán"})
		assert.NoError(t, err)

		keywords, err := service.GetFavoriteKeywords(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, []string{"chứng khoán"}, keywords)

		var count int64
		db.Model(&models.UserPreference{}).Where("user_id = ?", user.ID).Count(&count)
		assert.Equal(t, int64(1), count, "one preference row per user")
	})
}

func TestGetFavoriteKeywordsWithoutRow(t *testing.T) {
	db := setupTestDB(t)
	service := NewPreferenceService(db, newTestHooks(db), logger.NewNop())

	user := createUser(t, db)
	keywords, err := service.GetFavoriteKeywords(context.Background(), user.ID)
	assert.NoError(t, err)
	assert.Empty(t, keywords)
}
