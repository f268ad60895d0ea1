// Package eventhandler contains subscribers for domain events.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/learnhub/scoring-engine/internal/application/command"
	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED HANDLER
// Credits the one-time reward advertised by an achievement as a separate
// bonus transaction. Kept out of the triggering award so that award totals
// stay exactly what the caller submitted; enable via the
// auto_credit_achievement_rewards feature flag.
//
// Idempotency rides on the normal ledger guard: the reward transaction
// references the achievement id, so a re-delivered event credits nothing.
// ═══════════════════════════════════════════════════════════════════════════

// achievementRewardReferenceType namespaces reward references in the ledger.
const achievementRewardReferenceType = "achievement_reward"

// OnAchievementUnlockedHandler subscribes to achievement unlock events.
type OnAchievementUnlockedHandler struct {
	awardHandler *command.AwardPointsHandler
	logger       *slog.Logger
	enabled      bool
}

// NewOnAchievementUnlockedHandler creates the subscriber. When enabled is
// false the handler registers but ignores every event, so the wiring stays
// identical across configurations.
func NewOnAchievementUnlockedHandler(
	awardHandler *command.AwardPointsHandler,
	logger *slog.Logger,
	enabled bool,
) *OnAchievementUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnAchievementUnlockedHandler{
		awardHandler: awardHandler,
		logger:       logger,
		enabled:      enabled,
	}
}

// Register subscribes the handler on the bus.
func (h *OnAchievementUnlockedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventAchievementUnlocked, h.Handle)
}

// Handle credits the reward for one unlock event.
func (h *OnAchievementUnlockedHandler) Handle(event shared.Event) error {
	if !h.enabled {
		return nil
	}

	unlocked, ok := event.(scoring.AchievementUnlockedEvent)
	if !ok {
		return nil
	}
	if unlocked.RewardPoints <= 0 {
		return nil
	}

	achievement, found := scoring.FindAchievement(unlocked.AchievementID)
	if !found {
		h.logger.Warn("reward for unknown achievement skipped",
			"achievement_id", unlocked.AchievementID,
			"user_id", unlocked.UserID)
		return nil
	}

	_, err := h.awardHandler.Handle(context.Background(), command.AwardPointsCommand{
		UserID:        unlocked.UserID,
		Action:        scoring.ActionBonus,
		Points:        unlocked.RewardPoints,
		Description:   "Reward: " + achievement.Name,
		Metadata:      scoring.GenericMetadata{"achievement_id": unlocked.AchievementID},
		ReferenceID:   unlocked.AchievementID,
		ReferenceType: achievementRewardReferenceType,
		Authenticated: true,
	})
	if err != nil {
		h.logger.Error("failed to credit achievement reward",
			"achievement_id", unlocked.AchievementID,
			"user_id", unlocked.UserID,
			"error", err)
		return err
	}

	h.logger.Info("achievement reward credited",
		"achievement_id", unlocked.AchievementID,
		"user_id", unlocked.UserID,
		"points", unlocked.RewardPoints)
	return nil
}
