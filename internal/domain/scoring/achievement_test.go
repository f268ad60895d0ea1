package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

func newTestProgress(t *testing.T) *UserProgress {
	t.Helper()
	uid, err := shared.NewUserID("user-1")
	require.NoError(t, err)
	return NewUserProgress(uid, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestEvaluate_FirstPurchase(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.Apply(NewDelta(ActionPurchase, 50, time.Now().UTC()))

	earned := evaluator.Evaluate(progress, ActionPurchase, PurchaseMetadata{OrderID: "o-1"})

	assert.Equal(t, []string{"first_purchase"}, earned)
}

func TestEvaluate_BinaryNotRetriggeredByOtherActions(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.Apply(NewDelta(ActionBonus, 10, time.Now().UTC()))

	earned := evaluator.Evaluate(progress, ActionBonus, nil)

	assert.NotContains(t, earned, "first_purchase")
	assert.NotContains(t, earned, "first_course")
}

func TestEvaluate_ExactlyOnce(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.TotalLifetimePoints = 2500
	progress.PointsFromBonuses = 2500
	progress.Level = 6

	earned := evaluator.Evaluate(progress, ActionBonus, nil)
	require.Contains(t, earned, "level_up_5")

	// Simulate the unlock committing, then a double evaluation on the same
	// state: the id must not come back.
	progress.Achievements = append(progress.Achievements, earned...)
	progress.AchievementCount = len(progress.Achievements)

	again := evaluator.Evaluate(progress, ActionBonus, nil)
	assert.NotContains(t, again, "level_up_5")
	assert.Equal(t, progress.AchievementCount, len(progress.Achievements))
}

func TestEvaluate_CountRule(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.CoursesCompleted = 4

	earned := evaluator.Evaluate(progress, ActionCourseComplete, nil)
	assert.NotContains(t, earned, "course_collector_5")

	progress.CoursesCompleted = 5
	earned = evaluator.Evaluate(progress, ActionCourseComplete, nil)
	assert.Contains(t, earned, "course_collector_5")
	assert.NotContains(t, earned, "course_master_20")
}

func TestEvaluate_StreakTiers(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.DailyLoginStreak = 30

	earned := evaluator.Evaluate(progress, ActionDailyLogin, LoginMetadata{Streak: 30})

	// Reaching 30 in one evaluation satisfies both the 7- and 30-day tiers,
	// in catalog order.
	assert.Equal(t, []string{"streak_7", "streak_30"}, earned)
}

func TestEvaluate_CumulativeSpend(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.PointsFromPurchases = 999

	earned := evaluator.Evaluate(progress, ActionPurchase, nil)
	// first_purchase triggers on the action; big_spender needs the total.
	assert.Contains(t, earned, "first_purchase")
	assert.NotContains(t, earned, "big_spender")

	progress.PointsFromPurchases = 1000
	progress.Achievements = []string{"first_purchase"}
	progress.AchievementCount = 1
	earned = evaluator.Evaluate(progress, ActionPurchase, nil)
	assert.Equal(t, []string{"big_spender"}, earned)
}

func TestEvaluate_ProfileCompletion(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)

	earned := evaluator.Evaluate(progress, ActionProfileComplete, ProfileMetadata{CompletionPercent: 80})
	assert.NotContains(t, earned, "profile_complete")

	earned = evaluator.Evaluate(progress, ActionProfileComplete, ProfileMetadata{CompletionPercent: 100})
	assert.Contains(t, earned, "profile_complete")
}

func TestEvaluate_LoyalMemberNeedsDuration(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)

	earned := evaluator.Evaluate(progress, ActionDailyLogin, MembershipMetadata{ActiveDays: 200})
	assert.NotContains(t, earned, "loyal_member")

	earned = evaluator.Evaluate(progress, ActionDailyLogin, MembershipMetadata{ActiveDays: 365})
	assert.Contains(t, earned, "loyal_member")
}

func TestEvaluate_CatalogOrderIsStable(t *testing.T) {
	evaluator := NewEvaluator()
	progress := newTestProgress(t)
	progress.Level = 50
	progress.TotalLifetimePoints = 25000
	progress.DailyLoginStreak = 100

	first := evaluator.Evaluate(progress, ActionBonus, nil)
	second := evaluator.Evaluate(progress, ActionBonus, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"level_up_5", "level_up_10", "level_up_25", "level_up_50",
		"streak_7", "streak_30", "streak_100",
	}, first)
}

func TestCatalog_Lookup(t *testing.T) {
	a, ok := FindAchievement("level_up_50")
	require.True(t, ok)
	assert.Equal(t, int64(1000), a.RewardPoints)
	assert.Equal(t, CategoryLevel, a.Category)

	_, ok = FindAchievement("does_not_exist")
	assert.False(t, ok)
}

func TestCatalog_ByCategory(t *testing.T) {
	streaks := CatalogByCategory(CategoryStreak)
	ids := make([]string, 0, len(streaks))
	for _, a := range streaks {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"streak_7", "streak_30", "streak_100"}, ids)
}
