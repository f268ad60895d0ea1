package scoring

import (
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY LOGIN STREAK MACHINE
// ══════════════════════════════════════════════════════════════════════════════

// StreakState classifies the transition taken by a login against the prior
// login date. All comparisons are on UTC calendar dates.
type StreakState string

const (
	// StreakStateFirst - no prior login bonus was ever credited.
	StreakStateFirst StreakState = "no_prior_login"
	// StreakStateActive - the prior login was yesterday; the streak extends.
	StreakStateActive StreakState = "active_streak"
	// StreakStateBroken - the prior login was more than one day ago; the
	// streak restarts at 1.
	StreakStateBroken StreakState = "broken_streak"
)

// LoginDecision is the outcome of a valid login transition.
type LoginDecision struct {
	// NewStreak - the streak length including today.
	NewStreak int

	// State - which transition produced it.
	State StreakState
}

// NextLogin decides the streak transition for a login happening at now,
// given the timestamp of the last credited login bonus and the stored
// streak length.
//
// Same UTC calendar day as the last bonus rejects with
// ErrAlreadyProcessedToday; the caller treats that as an idempotent no-op,
// not a retryable failure.
func NextLogin(lastLogin time.Time, currentStreak int, now time.Time) (LoginDecision, error) {
	if lastLogin.IsZero() {
		return LoginDecision{NewStreak: 1, State: StreakStateFirst}, nil
	}

	if timeutil.SameDay(lastLogin, now) {
		return LoginDecision{}, shared.ErrAlreadyProcessedToday
	}

	if timeutil.IsYesterdayOf(lastLogin, now) {
		return LoginDecision{NewStreak: currentStreak + 1, State: StreakStateActive}, nil
	}

	return LoginDecision{NewStreak: 1, State: StreakStateBroken}, nil
}

// LoginReference builds the ledger reference for a daily-login bonus. The
// reference id is the UTC calendar date, so the partial unique constraint
// doubles as a storage-level guard behind the streak machine's date check.
func LoginReference(now time.Time) Reference {
	return Reference{
		ID:   timeutil.DateString(now),
		Type: string(ActionDailyLogin),
	}
}
