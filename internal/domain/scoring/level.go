package scoring

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// LevelThreshold is the fixed number of lifetime points per level.
// 0-499 points is level 1, 500-999 is level 2, and so on.
const LevelThreshold int64 = 500

// CalculateLevel maps lifetime points to a level number.
// Formula: floor(total / threshold) + 1. Negative totals never occur for
// lifetime points, but clamp to level 1 to keep the function total.
func CalculateLevel(totalPoints int64) int {
	if totalPoints < 0 {
		return 1
	}
	return int(totalPoints/LevelThreshold) + 1
}

// CalculateProgress returns the points remaining to the next level and the
// progress percentage within the current level.
//
// Percentage uses half-up rounding, so 499/500 reports 100% while still one
// point short of the next level. That boundary is pinned by tests.
func CalculateProgress(totalPoints int64) (pointsToNext int64, percent int) {
	if totalPoints < 0 {
		totalPoints = 0
	}

	pointsInLevel := totalPoints % LevelThreshold
	pointsToNext = LevelThreshold - pointsInLevel
	percent = int(math.Round(float64(pointsInLevel) / float64(LevelThreshold) * 100))

	return pointsToNext, percent
}
