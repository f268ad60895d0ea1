// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER SCORE QUERY
// Returns the full progress snapshot plus bounded recent transaction
// history, most-recent-first.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserScoreQuery contains the query parameters.
type GetUserScoreQuery struct {
	// UserID is the user whose score is requested.
	UserID string

	// HistoryLimit bounds the transaction history (default 20, max 100).
	HistoryLimit int
}

// Validate validates and normalizes the query.
func (q *GetUserScoreQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return err
	}
	if q.HistoryLimit < 0 {
		return shared.NewDomainError("query", "GetUserScore", shared.ErrNegativeValue, "history limit cannot be negative")
	}
	if q.HistoryLimit == 0 {
		q.HistoryLimit = 20
	}
	if q.HistoryLimit > 100 {
		q.HistoryLimit = 100
	}
	return nil
}

// PointsBreakdownDTO is the per-source split of lifetime points.
type PointsBreakdownDTO struct {
	Purchases  int64 `json:"purchases"`
	Courses    int64 `json:"courses"`
	Referrals  int64 `json:"referrals"`
	Activities int64 `json:"activities"`
	Bonuses    int64 `json:"bonuses"`
}

// TransactionDTO is one ledger row in the history listing.
type TransactionDTO struct {
	ID            string                 `json:"id"`
	Points        int64                  `json:"points"`
	Action        string                 `json:"action"`
	Status        string                 `json:"status"`
	Description   string                 `json:"description,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ReferenceID   string                 `json:"reference_id,omitempty"`
	ReferenceType string                 `json:"reference_type,omitempty"`
	ProcessedAt   time.Time              `json:"processed_at"`
}

// GetUserScoreResult is the full snapshot response.
type GetUserScoreResult struct {
	UserID                string             `json:"user_id"`
	CurrentPoints         int64              `json:"current_points"`
	TotalLifetimePoints   int64              `json:"total_lifetime_points"`
	Level                 int                `json:"level"`
	PointsToNextLevel     int64              `json:"points_to_next_level"`
	ProgressPercentage    int                `json:"progress_percentage"`
	Breakdown             PointsBreakdownDTO `json:"breakdown"`
	Achievements          []string           `json:"achievements"`
	AchievementCount      int                `json:"achievement_count"`
	DailyLoginStreak      int                `json:"daily_login_streak"`
	MaxDailyLoginStreak   int                `json:"max_daily_login_streak"`
	TotalLogins           int                `json:"total_logins"`
	TotalPenalties        int                `json:"total_penalties"`
	PointsLostToPenalties int64              `json:"points_lost_to_penalties"`
	Status                string             `json:"status"`
	IsFrozen              bool               `json:"is_frozen"`
	LastPointsEarnedAt    *time.Time         `json:"last_points_earned_at,omitempty"`
	LastLevelUpAt         *time.Time         `json:"last_level_up_at,omitempty"`
	History               []TransactionDTO   `json:"history"`
	HistoryTotal          int64              `json:"history_total"`
	GeneratedAt           time.Time          `json:"generated_at"`
}

// GetUserScoreHandler handles the GetUserScoreQuery.
type GetUserScoreHandler struct {
	progressStore scoring.ProgressStore
	ledger        scoring.Ledger
}

// NewGetUserScoreHandler creates a new GetUserScoreHandler.
func NewGetUserScoreHandler(progressStore scoring.ProgressStore, ledger scoring.Ledger) *GetUserScoreHandler {
	return &GetUserScoreHandler{progressStore: progressStore, ledger: ledger}
}

// Handle executes the query. Unknown users who never earned points get the
// zeroed level-1 snapshot rather than an error, mirroring what their first
// award would start from.
func (h *GetUserScoreHandler) Handle(ctx context.Context, query GetUserScoreQuery) (*GetUserScoreResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(query.UserID)

	progress, err := h.progressStore.Get(ctx, userID)
	if shared.IsNotFound(err) {
		progress = scoring.NewUserProgress(userID, time.Now().UTC())
	} else if err != nil {
		return nil, shared.WrapError("query", "GetUserScore", shared.ErrStorageFailure, "failed to load progress", err)
	}

	history, err := h.ledger.ListByUser(ctx, userID, query.HistoryLimit, 0)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserScore", shared.ErrStorageFailure, "failed to load history", err)
	}

	total, err := h.ledger.CountByUser(ctx, userID)
	if err != nil {
		total = int64(len(history))
	}

	result := &GetUserScoreResult{
		UserID:              progress.UserID.String(),
		CurrentPoints:       progress.CurrentPoints,
		TotalLifetimePoints: progress.TotalLifetimePoints,
		Level:               progress.Level,
		PointsToNextLevel:   progress.PointsToNextLevel,
		ProgressPercentage:  progress.LevelProgressPercent,
		Breakdown: PointsBreakdownDTO{
			Purchases:  progress.PointsFromPurchases,
			Courses:    progress.PointsFromCourses,
			Referrals:  progress.PointsFromReferrals,
			Activities: progress.PointsFromActivities,
			Bonuses:    progress.PointsFromBonuses,
		},
		Achievements:          append([]string{}, progress.Achievements...),
		AchievementCount:      progress.AchievementCount,
		DailyLoginStreak:      progress.DailyLoginStreak,
		MaxDailyLoginStreak:   progress.MaxDailyLoginStreak,
		TotalLogins:           progress.TotalLogins,
		TotalPenalties:        progress.TotalPenalties,
		PointsLostToPenalties: progress.PointsLostToPenalties,
		Status:                string(progress.Status),
		IsFrozen:              progress.IsFrozen,
		History:               make([]TransactionDTO, 0, len(history)),
		HistoryTotal:          total,
		GeneratedAt:           time.Now().UTC(),
	}

	if !progress.LastPointsEarnedAt.IsZero() {
		result.LastPointsEarnedAt = &progress.LastPointsEarnedAt
	}
	if !progress.LastLevelUpAt.IsZero() {
		result.LastLevelUpAt = &progress.LastLevelUpAt
	}

	for _, txn := range history {
		result.History = append(result.History, toTransactionDTO(txn))
	}

	return result, nil
}

// toTransactionDTO converts a ledger row into its listing form.
func toTransactionDTO(txn *scoring.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            txn.ID,
		Points:        txn.Points.Int64(),
		Action:        txn.Action.String(),
		Status:        string(txn.Status),
		Description:   txn.Description,
		Metadata:      scoring.EncodeMetadata(txn.Metadata),
		ReferenceID:   txn.Reference.ID,
		ReferenceType: txn.Reference.Type,
		ProcessedAt:   txn.ProcessedAt,
	}
}
