package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureDailyLoginBonus, nil))
	assert.True(t, ff.IsEnabled(FeatureLeaderboardCache, nil))
	assert.False(t, ff.IsEnabled(FeatureAchievementAutoCredit, nil))
	assert.False(t, ff.IsEnabled(FeatureRedisEventBus, nil))
	assert.False(t, ff.IsEnabled("no.such.feature", nil))
}

func TestFeatureFlags_EnvOverrideBool(t *testing.T) {
	t.Setenv("FEATURE_SCORING_ACHIEVEMENT_AUTO_CREDIT", "true")
	t.Setenv("FEATURE_SCORING_DAILY_LOGIN_BONUS", "false")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureAchievementAutoCredit, nil))
	assert.False(t, ff.IsEnabled(FeatureDailyLoginBonus, nil))
}

func TestFeatureFlags_EnvOverridePercent(t *testing.T) {
	t.Setenv("FEATURE_LEADERBOARD_RANK_CHANGE", "50")

	ff := LoadFeatureFlags()

	features := ff.GetAllFeatures()
	require.Contains(t, features, FeatureLeaderboardRankChange)
	assert.Equal(t, 50, features[FeatureLeaderboardRankChange].RolloutPercent)
}

func TestFeatureFlags_RolloutBucketingIsConsistent(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureAchievementAutoCredit, 50))

	ctx := &FeatureContext{UserID: "user-42"}
	first := ff.IsEnabled(FeatureAchievementAutoCredit, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureAchievementAutoCredit, ctx))
	}
}

func TestFeatureFlags_UserOverrideWinsOverRollout(t *testing.T) {
	ff := LoadFeatureFlags()

	ff.SetUserOverride("user-1", FeatureAchievementAutoCredit, true)
	assert.True(t, ff.IsEnabled(FeatureAchievementAutoCredit, &FeatureContext{UserID: "user-1"}))
	assert.False(t, ff.IsEnabled(FeatureAchievementAutoCredit, &FeatureContext{UserID: "user-2"}))

	ff.ClearUserOverrides("user-1")
	assert.False(t, ff.IsEnabled(FeatureAchievementAutoCredit, &FeatureContext{UserID: "user-1"}))
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureAchievementAutoCredit, &FeatureContext{IsAdmin: true}))
}

func TestFeatureFlags_SetRolloutPercentValidation(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureLeaderboardCache, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 10), ErrFeatureNotFound)
}
