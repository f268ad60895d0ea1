package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/memory"
)

func creditThroughAwarder(t *testing.T, awarder *memory.Awarder, userID string, action scoring.Action, points int64, at time.Time) {
	t.Helper()
	txn, err := scoring.NewTransaction(scoring.NewTransactionParams{
		ID:     uuid.NewString(),
		UserID: shared.UserID(userID),
		Points: shared.Points(points),
		Action: action,
		Now:    at,
	})
	require.NoError(t, err)
	_, err = awarder.Award(context.Background(), txn)
	require.NoError(t, err)
}

func TestGetUserScore_FullSnapshot(t *testing.T) {
	ledger := memory.NewLedger()
	progress := memory.NewProgressStore()
	awarder := memory.NewAwarder(ledger, progress)
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	creditThroughAwarder(t, awarder, "user-1", scoring.ActionCourseComplete, 100, now)
	creditThroughAwarder(t, awarder, "user-1", scoring.ActionPurchase, 50, now.Add(time.Minute))

	h := NewGetUserScoreHandler(progress, ledger)
	result, err := h.Handle(context.Background(), GetUserScoreQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, int64(150), result.TotalLifetimePoints)
	assert.Equal(t, int64(150), result.CurrentPoints)
	assert.Equal(t, 1, result.Level)
	assert.Equal(t, int64(100), result.Breakdown.Courses)
	assert.Equal(t, int64(50), result.Breakdown.Purchases)
	assert.Equal(t, int64(2), result.HistoryTotal)

	// History is most-recent-first.
	require.Len(t, result.History, 2)
	assert.Equal(t, "purchase", result.History[0].Action)
	assert.Equal(t, "course_complete", result.History[1].Action)
}

func TestGetUserScore_UnknownUserGetsZeroSnapshot(t *testing.T) {
	h := NewGetUserScoreHandler(memory.NewProgressStore(), memory.NewLedger())

	result, err := h.Handle(context.Background(), GetUserScoreQuery{UserID: "newcomer"})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.TotalLifetimePoints)
	assert.Equal(t, 1, result.Level)
	assert.Equal(t, int64(500), result.PointsToNextLevel)
	assert.Empty(t, result.History)
}

func TestGetUserScore_HistoryLimit(t *testing.T) {
	ledger := memory.NewLedger()
	progress := memory.NewProgressStore()
	awarder := memory.NewAwarder(ledger, progress)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		creditThroughAwarder(t, awarder, "user-1", scoring.ActionBonus, 10, now.Add(time.Duration(i)*time.Second))
	}

	h := NewGetUserScoreHandler(progress, ledger)
	result, err := h.Handle(context.Background(), GetUserScoreQuery{UserID: "user-1", HistoryLimit: 3})
	require.NoError(t, err)

	assert.Len(t, result.History, 3)
	assert.Equal(t, int64(5), result.HistoryTotal)
}

func TestGetUserScore_Validation(t *testing.T) {
	h := NewGetUserScoreHandler(memory.NewProgressStore(), memory.NewLedger())

	_, err := h.Handle(context.Background(), GetUserScoreQuery{UserID: ""})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = h.Handle(context.Background(), GetUserScoreQuery{UserID: "user-1", HistoryLimit: -5})
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}
