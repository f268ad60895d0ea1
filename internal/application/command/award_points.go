// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD POINTS COMMAND
// The single entry point for crediting (or deducting) points. Every external
// collaborator - order completion, course completion, login bonus - funnels
// through here.
// ══════════════════════════════════════════════════════════════════════════════

// AwardPointsCommand contains the data for one award.
type AwardPointsCommand struct {
	// UserID is the credited user.
	UserID string

	// Action is what the user did (purchase, course_complete, ...).
	Action scoring.Action

	// Points is the signed amount; sign rules depend on the action.
	Points int64

	// Description is a human-readable note for statements.
	Description string

	// Metadata is the typed action payload.
	Metadata scoring.Metadata

	// ReferenceID / ReferenceType identify the external originating event.
	// Callers MUST supply them for any event that might be retried.
	ReferenceID   string
	ReferenceType string

	// OrderID links purchase-driven awards to the order subsystem.
	OrderID string

	// CourseID links course-driven awards to the course subsystem.
	CourseID string

	// Authenticated reports whether the caller passed authentication.
	// The interface layer sets it; unauthenticated awards are rejected.
	Authenticated bool

	// CorrelationID for tracing.
	CorrelationID string

	// Timestamp is when the triggering event occurred (defaults to now).
	Timestamp time.Time
}

// Validate validates the command.
func (c AwardPointsCommand) Validate() error {
	if !c.Authenticated {
		return shared.ErrAuthRequired
	}
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	if !c.Action.IsValid() {
		return shared.ErrInvalidAction
	}
	if err := scoring.ValidatePoints(c.Action, shared.Points(c.Points)); err != nil {
		return err
	}
	if (c.ReferenceID == "") != (c.ReferenceType == "") {
		return shared.NewDomainError("command", "AwardPoints", shared.ErrInvalidInput,
			"reference_id and reference_type must be supplied together")
	}
	return nil
}

// AwardPointsResult is the updated snapshot returned to the caller.
type AwardPointsResult struct {
	// TransactionID is the ledger row id; empty on a suppressed duplicate.
	TransactionID string `json:"transaction_id,omitempty"`

	// PointsAwarded echoes the credited amount; zero on a duplicate.
	PointsAwarded int64 `json:"points_awarded"`

	// Duplicate is true when the reference was already credited. The
	// totals below then reflect the current state, unchanged by this call.
	Duplicate bool `json:"duplicate"`

	// NewTotalPoints is the post-award lifetime total.
	NewTotalPoints int64 `json:"new_total_points"`

	// NewCurrentPoints is the post-award spendable balance.
	NewCurrentPoints int64 `json:"new_current_points"`

	// NewLevel is the post-award level.
	NewLevel int `json:"new_level"`

	// LeveledUp is true when this award raised the level.
	LeveledUp bool `json:"leveled_up"`

	// NewAchievements lists achievement ids unlocked by this award, in
	// catalog order.
	NewAchievements []string `json:"new_achievements"`

	// PointsToNextLevel / ProgressPercentage describe the level progress.
	PointsToNextLevel  int64 `json:"points_to_next_level"`
	ProgressPercentage int   `json:"progress_percentage"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardPointsHandler handles the AwardPointsCommand.
type AwardPointsHandler struct {
	awarder        scoring.Awarder
	progressStore  scoring.ProgressStore
	ledger         scoring.Ledger
	evaluator      *scoring.Evaluator
	eventPublisher shared.EventPublisher
}

// NewAwardPointsHandler creates a new AwardPointsHandler.
func NewAwardPointsHandler(
	awarder scoring.Awarder,
	progressStore scoring.ProgressStore,
	ledger scoring.Ledger,
	evaluator *scoring.Evaluator,
	eventPublisher shared.EventPublisher,
) *AwardPointsHandler {
	return &AwardPointsHandler{
		awarder:        awarder,
		progressStore:  progressStore,
		ledger:         ledger,
		evaluator:      evaluator,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the award.
//
// Flow: append the ledger row and apply its counter delta as one atomic
// unit, then re-derive the level and evaluate achievements against the
// post-increment snapshot. A duplicate reference short-circuits into an
// idempotent response carrying the current totals.
func (h *AwardPointsHandler) Handle(ctx context.Context, cmd AwardPointsCommand) (*AwardPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	txn, err := scoring.NewTransaction(scoring.NewTransactionParams{
		ID:          uuid.NewString(),
		UserID:      shared.UserID(cmd.UserID),
		Points:      shared.Points(cmd.Points),
		Action:      cmd.Action,
		Description: cmd.Description,
		Metadata:    cmd.Metadata,
		Reference:   scoring.Reference{ID: cmd.ReferenceID, Type: cmd.ReferenceType},
		OrderID:     cmd.OrderID,
		CourseID:    cmd.CourseID,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	progress, err := h.awarder.Award(ctx, txn)
	if errors.Is(err, shared.ErrDuplicateAward) {
		return h.handleDuplicate(ctx, cmd, txn)
	}
	if err != nil {
		return nil, fmt.Errorf("award_points: %w", err)
	}

	result := &AwardPointsResult{
		TransactionID:      txn.ID,
		PointsAwarded:      cmd.Points,
		NewTotalPoints:     progress.TotalLifetimePoints,
		NewCurrentPoints:   progress.CurrentPoints,
		NewLevel:           progress.Level,
		NewAchievements:    []string{},
		PointsToNextLevel:  progress.PointsToNextLevel,
		ProgressPercentage: progress.LevelProgressPercent,
	}

	events := []shared.Event{scoring.NewPointsAwardedEvent(txn, progress)}
	if txn.Action == scoring.ActionPenalty {
		events = append(events, scoring.NewPenaltyAppliedEvent(txn))
	}

	// Level raise is detected on the post-increment total; the conditional
	// update keeps concurrent awards from ping-ponging the stored level.
	if derived := progress.DerivedLevel(); derived > progress.Level {
		raised, err := h.progressStore.RaiseLevel(ctx, progress.UserID, derived, now)
		if err != nil {
			return nil, fmt.Errorf("award_points: raise level: %w", err)
		}
		if raised {
			events = append(events, scoring.NewLevelUpEvent(progress.UserID, progress.Level, derived, progress.TotalLifetimePoints))
			result.LeveledUp = true
		}
		progress.Level = derived
		result.NewLevel = derived
	}

	earned := h.evaluator.Evaluate(progress, cmd.Action, cmd.Metadata)
	if len(earned) > 0 {
		added, err := h.progressStore.UnlockAchievements(ctx, progress.UserID, earned, now)
		if err != nil {
			return nil, fmt.Errorf("award_points: unlock achievements: %w", err)
		}
		result.NewAchievements = added
		for _, id := range added {
			reward := int64(0)
			if a, ok := scoring.FindAchievement(id); ok {
				reward = a.RewardPoints
			}
			events = append(events, scoring.NewAchievementUnlockedEvent(progress.UserID, id, reward))
		}
	}

	h.publish(events)

	return result, nil
}

// handleDuplicate builds the idempotent response for an already-credited
// reference: current totals, zero awarded, duplicate flag set.
func (h *AwardPointsHandler) handleDuplicate(ctx context.Context, cmd AwardPointsCommand, txn *scoring.Transaction) (*AwardPointsResult, error) {
	progress, err := h.progressStore.Get(ctx, txn.UserID)
	if err != nil {
		return nil, fmt.Errorf("award_points: duplicate snapshot: %w", err)
	}

	h.publish([]shared.Event{
		scoring.NewDuplicateSuppressedEvent(txn.UserID, cmd.Action, txn.Reference),
	})

	return &AwardPointsResult{
		Duplicate:          true,
		NewTotalPoints:     progress.TotalLifetimePoints,
		NewCurrentPoints:   progress.CurrentPoints,
		NewLevel:           progress.Level,
		NewAchievements:    []string{},
		PointsToNextLevel:  progress.PointsToNextLevel,
		ProgressPercentage: progress.LevelProgressPercent,
	}, nil
}

// publish fires events best-effort; delivery failures never fail the award.
func (h *AwardPointsHandler) publish(events []shared.Event) {
	if h.eventPublisher == nil {
		return
	}
	for _, event := range events {
		_ = h.eventPublisher.Publish(event)
	}
}
