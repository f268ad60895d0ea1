package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLevel(t *testing.T) {
	assert.Equal(t, 1, CalculateLevel(0))
	assert.Equal(t, 1, CalculateLevel(499))
	assert.Equal(t, 2, CalculateLevel(500))
	assert.Equal(t, 2, CalculateLevel(999))
	assert.Equal(t, 3, CalculateLevel(1000))

	// Boundary pinned by the acceptance scenario: 1999 is still level 4,
	// 2000 tips into level 5.
	assert.Equal(t, 4, CalculateLevel(1999))
	assert.Equal(t, 5, CalculateLevel(2000))
}

func TestCalculateLevel_NegativeClampsToOne(t *testing.T) {
	assert.Equal(t, 1, CalculateLevel(-50))
}

func TestCalculateProgress(t *testing.T) {
	toNext, percent := CalculateProgress(0)
	assert.Equal(t, int64(500), toNext)
	assert.Equal(t, 0, percent)

	toNext, percent = CalculateProgress(100)
	assert.Equal(t, int64(400), toNext)
	assert.Equal(t, 20, percent)

	toNext, percent = CalculateProgress(250)
	assert.Equal(t, int64(250), toNext)
	assert.Equal(t, 50, percent)

	// Fresh level start: 500 points means level 2 with a full level ahead.
	toNext, percent = CalculateProgress(500)
	assert.Equal(t, int64(500), toNext)
	assert.Equal(t, 0, percent)
}

func TestCalculateProgress_RoundingBoundary(t *testing.T) {
	// 1999 mod 500 = 499; 499/500*100 = 99.8, which rounds half-up to 100%
	// while still one point short of the next level.
	toNext, percent := CalculateProgress(1999)
	assert.Equal(t, int64(1), toNext)
	assert.Equal(t, 100, percent)

	// 497/500*100 = 99.4 rounds down.
	toNext, percent = CalculateProgress(1997)
	assert.Equal(t, int64(3), toNext)
	assert.Equal(t, 99, percent)
}
