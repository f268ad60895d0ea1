package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

func TestNextLogin_FirstEver(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	decision, err := NextLogin(time.Time{}, 0, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, decision.NewStreak)
	assert.Equal(t, StreakStateFirst, decision.State)
}

func TestNextLogin_ConsecutiveDayExtends(t *testing.T) {
	last := time.Date(2025, 3, 9, 23, 50, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC)

	decision, err := NextLogin(last, 4, now)

	assert.NoError(t, err)
	assert.Equal(t, 5, decision.NewStreak)
	assert.Equal(t, StreakStateActive, decision.State)
}

func TestNextLogin_SameDayRejected(t *testing.T) {
	last := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)

	_, err := NextLogin(last, 4, now)

	assert.ErrorIs(t, err, shared.ErrAlreadyProcessedToday)
	assert.True(t, shared.IsAlreadyProcessed(err))
}

func TestNextLogin_GapResetsToOne(t *testing.T) {
	last := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	decision, err := NextLogin(last, 9, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, decision.NewStreak)
	assert.Equal(t, StreakStateBroken, decision.State)
}

func TestNextLogin_UsesUTCCalendarDates(t *testing.T) {
	// 23:00 UTC on the 9th and 01:00+03:00 on the 10th (= 22:00 UTC on the
	// 9th) are the same UTC day even though local dates differ.
	last := time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)
	zone := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, 3, 10, 1, 0, 0, 0, zone)

	_, err := NextLogin(last, 2, now)

	assert.ErrorIs(t, err, shared.ErrAlreadyProcessedToday)
}

func TestLoginReference(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	ref := LoginReference(now)

	assert.Equal(t, "2025-03-10", ref.ID)
	assert.Equal(t, "daily_login", ref.Type)
	assert.True(t, ref.IsValid())
}
