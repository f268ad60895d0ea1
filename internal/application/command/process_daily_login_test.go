package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

func newLoginHandler(f *awardFixture, bonus int64) *ProcessDailyLoginHandler {
	return NewProcessDailyLoginHandler(f.progress, f.handler, nil, bonus)
}

func login(t *testing.T, h *ProcessDailyLoginHandler, userID string, at time.Time) *ProcessDailyLoginResult {
	t.Helper()
	result, err := h.Handle(context.Background(), ProcessDailyLoginCommand{
		UserID:        userID,
		Authenticated: true,
		Timestamp:     at,
	})
	require.NoError(t, err)
	return result
}

func TestProcessDailyLogin_FirstLogin(t *testing.T) {
	f := newAwardFixture()
	h := newLoginHandler(f, 5)
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	result := login(t, h, "user-1", day)

	assert.Equal(t, int64(5), result.PointsAwarded)
	assert.Equal(t, 1, result.NewStreak)
	assert.Equal(t, 1, result.MaxStreak)
	assert.False(t, result.StreakExtended)
}

func TestProcessDailyLogin_ConsecutiveDays(t *testing.T) {
	f := newAwardFixture()
	h := newLoginHandler(f, 5)
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	login(t, h, "user-1", day)
	result := login(t, h, "user-1", day.AddDate(0, 0, 1))

	assert.Equal(t, 2, result.NewStreak)
	assert.True(t, result.StreakExtended)
	assert.Equal(t, int64(10), result.NewTotalPoints)
}

func TestProcessDailyLogin_SameDayRejected(t *testing.T) {
	f := newAwardFixture()
	h := newLoginHandler(f, 5)
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	login(t, h, "user-1", day)

	_, err := h.Handle(context.Background(), ProcessDailyLoginCommand{
		UserID:        "user-1",
		Authenticated: true,
		Timestamp:     day.Add(6 * time.Hour),
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessedToday)

	// Streak and totals unchanged by the rejected call.
	progress, err := f.progress.Get(context.Background(), shared.UserID("user-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, progress.DailyLoginStreak)
	assert.Equal(t, int64(5), progress.TotalLifetimePoints)
}

func TestProcessDailyLogin_GapResetsStreak(t *testing.T) {
	f := newAwardFixture()
	h := newLoginHandler(f, 5)
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	login(t, h, "user-1", day)
	login(t, h, "user-1", day.AddDate(0, 0, 1))
	result := login(t, h, "user-1", day.AddDate(0, 0, 4))

	assert.Equal(t, 1, result.NewStreak)
	assert.False(t, result.StreakExtended)
	// Max streak remembers the best run.
	assert.Equal(t, 2, result.MaxStreak)
}

func TestProcessDailyLogin_StreakAchievement(t *testing.T) {
	f := newAwardFixture()
	h := newLoginHandler(f, 5)
	day := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	var last *ProcessDailyLoginResult
	for i := 0; i < 7; i++ {
		last = login(t, h, "user-1", day.AddDate(0, 0, i))
	}

	assert.Equal(t, 7, last.NewStreak)
	assert.Contains(t, last.NewAchievements, "streak_7")
}

func TestProcessDailyLogin_OtherAwardsDoNotBlockBonus(t *testing.T) {
	f := newAwardFixture()
	h := newLoginHandler(f, 5)
	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	// A purchase earlier today must not consume the login slot.
	award(t, f, AwardPointsCommand{
		UserID: "user-1", Action: "purchase", Points: 50, Timestamp: day,
	})

	result := login(t, h, "user-1", day.Add(time.Hour))
	assert.Equal(t, int64(5), result.PointsAwarded)
	assert.Equal(t, 1, result.NewStreak)
}
