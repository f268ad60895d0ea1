package scoring

import (
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// PointsAwardedEvent fires after a ledger row and its aggregate delta commit.
type PointsAwardedEvent struct {
	shared.BaseEvent
	TransactionID string
	UserID        string
	Action        Action
	Points        int64
	NewTotal      int64
	NewLevel      int
}

// NewPointsAwardedEvent creates the event from the committed state.
func NewPointsAwardedEvent(txn *Transaction, progress *UserProgress) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventPointsAwarded, txn.UserID.String()),
		TransactionID: txn.ID,
		UserID:        txn.UserID.String(),
		Action:        txn.Action,
		Points:        txn.Points.Int64(),
		NewTotal:      progress.TotalLifetimePoints,
		NewLevel:      progress.Level,
	}
}

// Payload implements shared.Event.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"transaction_id": e.TransactionID,
		"user_id":        e.UserID,
		"action":         string(e.Action),
		"points":         e.Points,
		"new_total":      e.NewTotal,
		"new_level":      e.NewLevel,
	}
}

// DuplicateSuppressedEvent fires when a retried award hits the reference
// constraint and is absorbed idempotently.
type DuplicateSuppressedEvent struct {
	shared.BaseEvent
	UserID    string
	Action    Action
	Reference Reference
}

// NewDuplicateSuppressedEvent creates the event for a suppressed duplicate.
func NewDuplicateSuppressedEvent(userID shared.UserID, action Action, ref Reference) DuplicateSuppressedEvent {
	return DuplicateSuppressedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventDuplicateSuppressed, userID.String()),
		UserID:    userID.String(),
		Action:    action,
		Reference: ref,
	}
}

// Payload implements shared.Event.
func (e DuplicateSuppressedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"action":         string(e.Action),
		"reference_id":   e.Reference.ID,
		"reference_type": e.Reference.Type,
	}
}

// LevelUpEvent fires when an award pushes the stored level up.
type LevelUpEvent struct {
	shared.BaseEvent
	UserID   string
	OldLevel int
	NewLevel int
	Total    int64
}

// NewLevelUpEvent creates the event for a level transition.
func NewLevelUpEvent(userID shared.UserID, oldLevel, newLevel int, total int64) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, userID.String()),
		UserID:    userID.String(),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		Total:     total,
	}
}

// Payload implements shared.Event.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total":     e.Total,
	}
}

// AchievementUnlockedEvent fires once per newly unlocked achievement. The
// reward points ride along so an optional subscriber can credit them as a
// separate bonus transaction.
type AchievementUnlockedEvent struct {
	shared.BaseEvent
	UserID        string
	AchievementID string
	RewardPoints  int64
}

// NewAchievementUnlockedEvent creates the event for one unlocked id.
func NewAchievementUnlockedEvent(userID shared.UserID, achievementID string, reward int64) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventAchievementUnlocked, userID.String()),
		UserID:        userID.String(),
		AchievementID: achievementID,
		RewardPoints:  reward,
	}
}

// Payload implements shared.Event.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"reward_points":  e.RewardPoints,
	}
}

// StreakChangedEvent fires when a login extends or resets the streak.
type StreakChangedEvent struct {
	shared.BaseEvent
	UserID    string
	NewStreak int
	State     StreakState
}

// NewStreakChangedEvent creates the event for a streak transition.
func NewStreakChangedEvent(userID shared.UserID, decision LoginDecision) StreakChangedEvent {
	eventType := shared.EventStreakExtended
	if decision.State == StreakStateBroken {
		eventType = shared.EventStreakReset
	}
	return StreakChangedEvent{
		BaseEvent: shared.NewBaseEvent(eventType, userID.String()),
		UserID:    userID.String(),
		NewStreak: decision.NewStreak,
		State:     decision.State,
	}
}

// Payload implements shared.Event.
func (e StreakChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"new_streak": e.NewStreak,
		"state":      string(e.State),
	}
}

// PenaltyAppliedEvent fires when a penalty transaction commits.
type PenaltyAppliedEvent struct {
	shared.BaseEvent
	UserID        string
	TransactionID string
	Points        int64
	Reason        string
}

// NewPenaltyAppliedEvent creates the event for a committed penalty.
func NewPenaltyAppliedEvent(txn *Transaction) PenaltyAppliedEvent {
	reason := txn.Description
	if m, ok := txn.Metadata.(AdjustmentMetadata); ok && m.Reason != "" {
		reason = m.Reason
	}
	return PenaltyAppliedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventPenaltyApplied, txn.UserID.String()),
		UserID:        txn.UserID.String(),
		TransactionID: txn.ID,
		Points:        txn.Points.Int64(),
		Reason:        reason,
	}
}

// Payload implements shared.Event.
func (e PenaltyAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"transaction_id": e.TransactionID,
		"points":         e.Points,
		"reason":         e.Reason,
	}
}
