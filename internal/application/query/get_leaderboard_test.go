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

func seedProgress(t *testing.T, store *memory.ProgressStore, userID string, lifetime int64, bonusForLevel int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.ApplyDelta(ctx, shared.UserID(userID), scoring.NewDelta(scoring.ActionBonus, shared.Points(lifetime), now))
	require.NoError(t, err)
	if bonusForLevel > 0 {
		_, err = store.RaiseLevel(ctx, shared.UserID(userID), bonusForLevel, now)
		require.NoError(t, err)
	}
}

func TestGetLeaderboard_TieBreakOnLevel(t *testing.T) {
	store := memory.NewProgressStore()
	// Totals [500, 500, 300], levels [2, 3, 1]: the level-3 user must rank
	// above the level-2 user despite equal totals.
	seedProgress(t, store, "level2-user", 500, 2)
	seedProgress(t, store, "level3-user", 500, 3)
	seedProgress(t, store, "level1-user", 300, 0)

	h := NewGetLeaderboardHandler(memory.NewLeaderboardRepo(store), nil)
	result, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "level3-user", result.Entries[0].UserID)
	assert.Equal(t, "level2-user", result.Entries[1].UserID)
	assert.Equal(t, "level1-user", result.Entries[2].UserID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, int64(3), result.TotalCount)
}

func TestGetLeaderboard_ExcludesFrozenUsers(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "active", 100, 0)
	seedProgress(t, store, "frozen", 900, 0)
	require.NoError(t, store.SetFrozen(context.Background(), shared.UserID("frozen"), true))

	h := NewGetLeaderboardHandler(memory.NewLeaderboardRepo(store), nil)
	result, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "active", result.Entries[0].UserID)
}

func TestGetLeaderboard_Pagination(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "u1", 400, 0)
	seedProgress(t, store, "u2", 300, 0)
	seedProgress(t, store, "u3", 200, 0)
	seedProgress(t, store, "u4", 100, 0)

	h := NewGetLeaderboardHandler(memory.NewLeaderboardRepo(store), nil)
	result, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "u2", result.Entries[0].UserID)
	assert.Equal(t, 2, result.Entries[0].Rank)
	assert.True(t, result.HasMore)
}

func TestGetLeaderboard_CallerRank(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "u1", 400, 0)
	seedProgress(t, store, "u2", 300, 0)
	seedProgress(t, store, "u3", 200, 0)
	seedProgress(t, store, "u4", 100, 0)

	h := NewGetLeaderboardHandler(memory.NewLeaderboardRepo(store), nil)
	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Limit:             2,
		IncludeCallerRank: true,
		CallerID:          "u3",
	})
	require.NoError(t, err)

	require.NotNil(t, result.CallerRank)
	assert.Equal(t, 3, result.CallerRank.Rank)
	assert.InDelta(t, 25.0, result.CallerRank.Percentile, 0.01)
}

func TestGetLeaderboard_UnrankedCallerYieldsNoRank(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "u1", 400, 0)

	h := NewGetLeaderboardHandler(memory.NewLeaderboardRepo(store), nil)
	result, err := h.Handle(context.Background(), GetLeaderboardQuery{
		IncludeCallerRank: true,
		CallerID:          "ghost",
	})
	require.NoError(t, err)
	assert.Nil(t, result.CallerRank)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	h := NewGetLeaderboardHandler(memory.NewLeaderboardRepo(memory.NewProgressStore()), nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, GetLeaderboardQuery{Offset: -1})
	assert.ErrorIs(t, err, shared.ErrInvalidPagination)

	_, err = h.Handle(ctx, GetLeaderboardQuery{Timeframe: "weekly"})
	assert.ErrorIs(t, err, shared.ErrUnsupportedTimeframe)

	_, err = h.Handle(ctx, GetLeaderboardQuery{IncludeCallerRank: true})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// Oversized limits are capped, not rejected.
	result, err := h.Handle(ctx, GetLeaderboardQuery{Limit: 500})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
