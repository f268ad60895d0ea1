package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/memory"
)

func seedAchievements(t *testing.T, store *memory.ProgressStore, userID string, ids []string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.ApplyDelta(ctx, shared.UserID(userID), scoring.NewDelta(scoring.ActionBonus, 10, now))
	require.NoError(t, err)
	_, err = store.UnlockAchievements(ctx, shared.UserID(userID), ids, now)
	require.NoError(t, err)
}

func TestGetUserAchievements_SplitsEarnedAndLocked(t *testing.T) {
	store := memory.NewProgressStore()
	seedAchievements(t, store, "user-1", []string{"first_purchase", "streak_7"})

	h := NewGetUserAchievementsHandler(store)
	result, err := h.Handle(context.Background(), GetUserAchievementsQuery{
		UserID:        "user-1",
		IncludeLocked: true,
	})
	require.NoError(t, err)

	earnedIDs := make([]string, 0, len(result.Earned))
	for _, a := range result.Earned {
		earnedIDs = append(earnedIDs, a.ID)
	}
	assert.Equal(t, []string{"first_purchase", "streak_7"}, earnedIDs)
	assert.Len(t, result.Locked, scoring.CatalogSize()-2)

	for _, a := range result.Locked {
		assert.NotContains(t, earnedIDs, a.ID)
	}
}

func TestGetUserAchievements_CategoryFilter(t *testing.T) {
	store := memory.NewProgressStore()
	seedAchievements(t, store, "user-1", []string{"streak_7", "first_purchase"})

	h := NewGetUserAchievementsHandler(store)
	result, err := h.Handle(context.Background(), GetUserAchievementsQuery{
		UserID:        "user-1",
		Category:      "streak",
		IncludeLocked: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Earned, 1)
	assert.Equal(t, "streak_7", result.Earned[0].ID)
	// streak_30 and streak_100 remain locked.
	assert.Len(t, result.Locked, 2)
	// 1 of 3 streak entries earned: 33%.
	assert.Equal(t, 33, result.CompletionPercentage)
}

func TestGetUserAchievements_UnknownUserHasEverythingLocked(t *testing.T) {
	h := NewGetUserAchievementsHandler(memory.NewProgressStore())

	result, err := h.Handle(context.Background(), GetUserAchievementsQuery{
		UserID:        "newcomer",
		IncludeLocked: true,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Earned)
	assert.Len(t, result.Locked, scoring.CatalogSize())
	assert.Equal(t, 0, result.CompletionPercentage)
}

func TestGetUserAchievements_LockedOmittedByDefault(t *testing.T) {
	store := memory.NewProgressStore()
	seedAchievements(t, store, "user-1", []string{"first_purchase"})

	h := NewGetUserAchievementsHandler(store)
	result, err := h.Handle(context.Background(), GetUserAchievementsQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Len(t, result.Earned, 1)
	assert.Nil(t, result.Locked)
}

func TestGetUserAchievements_Validation(t *testing.T) {
	h := NewGetUserAchievementsHandler(memory.NewProgressStore())

	_, err := h.Handle(context.Background(), GetUserAchievementsQuery{UserID: "user-1", Category: "mystery"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
