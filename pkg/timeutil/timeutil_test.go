package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameDay(t *testing.T) {
	morning := time.Date(2025, 3, 10, 0, 15, 0, 0, time.UTC)
	night := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC)

	assert.True(t, SameDay(morning, night))
	assert.False(t, SameDay(night, nextDay))
}

func TestSameDay_NormalizesZones(t *testing.T) {
	// 23:30 UTC-2 is 01:30 UTC the next day.
	zone := time.FixedZone("UTC-2", -2*60*60)
	local := time.Date(2025, 3, 10, 23, 30, 0, 0, zone)
	utc := time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(local, utc))
}

func TestDaysBetween(t *testing.T) {
	day := time.Date(2025, 3, 10, 18, 45, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(day, day.Add(2*time.Hour)))
	assert.Equal(t, 1, DaysBetween(day, day.Add(12*time.Hour)))
	assert.Equal(t, 3, DaysBetween(day, day.AddDate(0, 0, 3)))
	assert.Equal(t, -1, DaysBetween(day, day.AddDate(0, 0, -1)))
}

func TestIsYesterdayOf(t *testing.T) {
	today := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	assert.True(t, IsYesterdayOf(time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC), today))
	assert.False(t, IsYesterdayOf(time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC), today))
	assert.False(t, IsYesterdayOf(today, today))
}

func TestStartOfWeek(t *testing.T) {
	// 2025-03-12 is a Wednesday; the week starts Monday 2025-03-10.
	wed := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartOfWeek(wed))

	// Sunday belongs to the week that started the previous Monday.
	sun := time.Date(2025, 3, 16, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartOfWeek(sun))
}

func TestDateString(t *testing.T) {
	d := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-10", DateString(d))
}
