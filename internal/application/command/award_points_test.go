package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/memory"
)

type awardFixture struct {
	ledger   *memory.Ledger
	progress *memory.ProgressStore
	handler  *AwardPointsHandler
}

func newAwardFixture() *awardFixture {
	ledger := memory.NewLedger()
	progress := memory.NewProgressStore()
	awarder := memory.NewAwarder(ledger, progress)

	return &awardFixture{
		ledger:   ledger,
		progress: progress,
		handler:  NewAwardPointsHandler(awarder, progress, ledger, scoring.NewEvaluator(), nil),
	}
}

func award(t *testing.T, f *awardFixture, cmd AwardPointsCommand) *AwardPointsResult {
	t.Helper()
	cmd.Authenticated = true
	result, err := f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	return result
}

func TestAwardPoints_FirstAward(t *testing.T) {
	f := newAwardFixture()

	result := award(t, f, AwardPointsCommand{
		UserID: "user-1",
		Action: scoring.ActionCourseComplete,
		Points: 100,
	})

	assert.Equal(t, int64(100), result.PointsAwarded)
	assert.Equal(t, int64(100), result.NewTotalPoints)
	assert.Equal(t, 1, result.NewLevel)
	assert.Equal(t, int64(400), result.PointsToNextLevel)
	assert.False(t, result.Duplicate)
	assert.Contains(t, result.NewAchievements, "first_course")
}

func TestAwardPoints_Idempotency(t *testing.T) {
	f := newAwardFixture()
	cmd := AwardPointsCommand{
		UserID:        "user-1",
		Action:        scoring.ActionPurchase,
		Points:        50,
		ReferenceID:   "order-1",
		ReferenceType: "order",
	}

	first := award(t, f, cmd)
	second := award(t, f, cmd)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, int64(0), second.PointsAwarded)
	// Both calls report identical totals.
	assert.Equal(t, first.NewTotalPoints, second.NewTotalPoints)
	assert.Equal(t, int64(50), second.NewTotalPoints)
}

func TestAwardPoints_LevelUp(t *testing.T) {
	f := newAwardFixture()

	result := award(t, f, AwardPointsCommand{
		UserID: "user-1",
		Action: scoring.ActionBonus,
		Points: 499,
	})
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.NewLevel)

	result = award(t, f, AwardPointsCommand{
		UserID: "user-1",
		Action: scoring.ActionBonus,
		Points: 1,
	})
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.NewLevel)
	assert.Equal(t, int64(500), result.PointsToNextLevel)
}

func TestAwardPoints_BigJumpUnlocksTieredAchievements(t *testing.T) {
	f := newAwardFixture()

	result := award(t, f, AwardPointsCommand{
		UserID: "user-1",
		Action: scoring.ActionBonus,
		Points: 2500,
	})

	// 2500 points is level 6: both conditions were crossed in one award.
	assert.Equal(t, 6, result.NewLevel)
	assert.Contains(t, result.NewAchievements, "level_up_5")

	// A second award must not re-unlock the tier.
	result = award(t, f, AwardPointsCommand{
		UserID: "user-1",
		Action: scoring.ActionBonus,
		Points: 10,
	})
	assert.NotContains(t, result.NewAchievements, "level_up_5")
}

func TestAwardPoints_BreakdownScenario(t *testing.T) {
	f := newAwardFixture()

	result := award(t, f, AwardPointsCommand{
		UserID: "user-9",
		Action: scoring.ActionCourseComplete,
		Points: 100,
	})
	assert.Equal(t, int64(100), result.NewTotalPoints)
	assert.Equal(t, 1, result.NewLevel)
	assert.Equal(t, int64(400), result.PointsToNextLevel)

	result = award(t, f, AwardPointsCommand{
		UserID: "user-9",
		Action: scoring.ActionPurchase,
		Points: 50,
	})
	assert.Equal(t, int64(150), result.NewTotalPoints)

	progress, err := f.progress.Get(context.Background(), shared.UserID("user-9"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), progress.PointsFromCourses)
	assert.Equal(t, int64(50), progress.PointsFromPurchases)
}

func TestAwardPoints_PenaltyReducesCurrentOnly(t *testing.T) {
	f := newAwardFixture()

	award(t, f, AwardPointsCommand{UserID: "user-1", Action: scoring.ActionPurchase, Points: 200})
	result := award(t, f, AwardPointsCommand{
		UserID:      "user-1",
		Action:      scoring.ActionPenalty,
		Points:      -50,
		Description: "chargeback",
	})

	assert.Equal(t, int64(150), result.NewCurrentPoints)
	assert.Equal(t, int64(200), result.NewTotalPoints)
}

func TestAwardPoints_Validation(t *testing.T) {
	f := newAwardFixture()
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, AwardPointsCommand{
		UserID: "user-1", Action: scoring.ActionPurchase, Points: 50,
	})
	assert.ErrorIs(t, err, shared.ErrAuthRequired)

	_, err = f.handler.Handle(ctx, AwardPointsCommand{
		UserID: "user-1", Action: scoring.ActionPurchase, Points: 0, Authenticated: true,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidPoints)

	_, err = f.handler.Handle(ctx, AwardPointsCommand{
		UserID: "user-1", Action: "teleport", Points: 10, Authenticated: true,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidAction)

	_, err = f.handler.Handle(ctx, AwardPointsCommand{
		UserID: "user-1", Action: scoring.ActionPurchase, Points: 10,
		ReferenceID: "o-1", Authenticated: true,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAwardPoints_LedgerRowMarkedApplied(t *testing.T) {
	f := newAwardFixture()

	result := award(t, f, AwardPointsCommand{
		UserID: "user-1", Action: scoring.ActionPurchase, Points: 50,
	})

	txn, err := f.ledger.GetByID(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.True(t, txn.Applied)
	assert.Equal(t, scoring.StatusCompleted, txn.Status)
}
