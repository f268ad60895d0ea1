package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROCESS DAILY LOGIN COMMAND
// Runs the calendar streak machine and credits the once-per-day login bonus.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLoginBonusPoints is the fixed award for a daily login.
const DefaultLoginBonusPoints int64 = 5

// ProcessDailyLoginCommand contains the data for one login event.
type ProcessDailyLoginCommand struct {
	// UserID is the logging-in user.
	UserID string

	// Device is the client device identifier, if known.
	Device string

	// Authenticated reports whether the caller passed authentication.
	Authenticated bool

	// CorrelationID for tracing.
	CorrelationID string

	// Timestamp is when the login happened (defaults to now). Streak
	// decisions compare its UTC calendar date.
	Timestamp time.Time
}

// Validate validates the command.
func (c ProcessDailyLoginCommand) Validate() error {
	if !c.Authenticated {
		return shared.ErrAuthRequired
	}
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	return nil
}

// ProcessDailyLoginResult is returned on a successful bonus credit.
type ProcessDailyLoginResult struct {
	// PointsAwarded is the login bonus amount.
	PointsAwarded int64 `json:"points_awarded"`

	// NewStreak is the streak length including today.
	NewStreak int `json:"new_streak"`

	// MaxStreak is the best streak ever reached.
	MaxStreak int `json:"max_streak"`

	// StreakExtended is true when the streak continued from yesterday.
	StreakExtended bool `json:"streak_extended"`

	// NewAchievements lists achievement ids unlocked by the bonus award.
	NewAchievements []string `json:"new_achievements"`

	// NewTotalPoints is the post-award lifetime total.
	NewTotalPoints int64 `json:"new_total_points"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ProcessDailyLoginHandler handles the ProcessDailyLoginCommand.
type ProcessDailyLoginHandler struct {
	progressStore  scoring.ProgressStore
	awardHandler   *AwardPointsHandler
	eventPublisher shared.EventPublisher
	bonusPoints    int64
}

// NewProcessDailyLoginHandler creates a new ProcessDailyLoginHandler.
// bonusPoints <= 0 falls back to the default.
func NewProcessDailyLoginHandler(
	progressStore scoring.ProgressStore,
	awardHandler *AwardPointsHandler,
	eventPublisher shared.EventPublisher,
	bonusPoints int64,
) *ProcessDailyLoginHandler {
	if bonusPoints <= 0 {
		bonusPoints = DefaultLoginBonusPoints
	}
	return &ProcessDailyLoginHandler{
		progressStore:  progressStore,
		awardHandler:   awardHandler,
		eventPublisher: eventPublisher,
		bonusPoints:    bonusPoints,
	}
}

// Handle executes the daily login.
//
// Flow: read the stored login date, run the streak machine, claim today's
// slot with a conditional update, then credit the bonus through the normal
// award path. Two guards keep the bonus once-per-day: the conditional
// claim in the store and the date-keyed ledger reference behind it.
func (h *ProcessDailyLoginHandler) Handle(ctx context.Context, cmd ProcessDailyLoginCommand) (*ProcessDailyLoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID := shared.UserID(cmd.UserID)

	var lastLogin time.Time
	var currentStreak int
	progress, err := h.progressStore.Get(ctx, userID)
	switch {
	case err == nil:
		lastLogin = progress.LastLoginAt
		currentStreak = progress.DailyLoginStreak
	case shared.IsNotFound(err):
		// First ever award for this user; the store creates the record
		// when the bonus is credited.
	default:
		return nil, fmt.Errorf("process_daily_login: %w", err)
	}

	decision, err := scoring.NextLogin(lastLogin, currentStreak, now)
	if err != nil {
		return nil, err
	}

	updated, err := h.progressStore.RecordLogin(ctx, userID, decision.NewStreak, now)
	if err != nil {
		// A concurrent login for the same user may win the claim between
		// our read and the update; surface it as the same idempotent error.
		if errors.Is(err, shared.ErrAlreadyProcessedToday) {
			return nil, shared.ErrAlreadyProcessedToday
		}
		return nil, fmt.Errorf("process_daily_login: record login: %w", err)
	}

	ref := scoring.LoginReference(now)
	award, err := h.awardHandler.Handle(ctx, AwardPointsCommand{
		UserID:        cmd.UserID,
		Action:        scoring.ActionDailyLogin,
		Points:        h.bonusPoints,
		Description:   "Daily login bonus",
		Metadata:      scoring.LoginMetadata{Streak: decision.NewStreak, Device: cmd.Device},
		ReferenceID:   ref.ID,
		ReferenceType: ref.Type,
		Authenticated: true,
		CorrelationID: cmd.CorrelationID,
		Timestamp:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("process_daily_login: award bonus: %w", err)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(scoring.NewStreakChangedEvent(userID, decision))
	}

	return &ProcessDailyLoginResult{
		PointsAwarded:   award.PointsAwarded,
		NewStreak:       decision.NewStreak,
		MaxStreak:       updated.MaxDailyLoginStreak,
		StreakExtended:  decision.State == scoring.StreakStateActive,
		NewAchievements: award.NewAchievements,
		NewTotalPoints:  award.NewTotalPoints,
	}, nil
}
