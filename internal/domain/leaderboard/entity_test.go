package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addEntry(t *testing.T, r *Ranking, userID string, lifetime int64, level int, current int64) {
	t.Helper()
	err := r.Add(&Entry{
		UserID:              userID,
		TotalLifetimePoints: lifetime,
		Level:               level,
		CurrentPoints:       current,
	})
	require.NoError(t, err)
}

func TestRanking_SortOrdersByPredicate(t *testing.T) {
	r := NewRanking()
	addEntry(t, r, "low", 300, 1, 300)
	addEntry(t, r, "mid", 500, 2, 500)
	addEntry(t, r, "top", 900, 2, 900)

	r.Sort()

	all := r.All()
	assert.Equal(t, "top", all[0].UserID)
	assert.Equal(t, "mid", all[1].UserID)
	assert.Equal(t, "low", all[2].UserID)
	assert.Equal(t, Rank(1), all[0].Rank)
	assert.Equal(t, Rank(3), all[2].Rank)
}

func TestRanking_LevelBreaksPointTies(t *testing.T) {
	// Equal lifetime totals: the higher level ranks first.
	r := NewRanking()
	addEntry(t, r, "level2", 500, 2, 500)
	addEntry(t, r, "level3", 500, 3, 400)
	addEntry(t, r, "level1", 300, 1, 300)

	r.Sort()

	all := r.All()
	assert.Equal(t, "level3", all[0].UserID)
	assert.Equal(t, "level2", all[1].UserID)
	assert.Equal(t, "level1", all[2].UserID)
}

func TestRanking_UserIDBreaksFullTies(t *testing.T) {
	r := NewRanking()
	addEntry(t, r, "bbb", 500, 2, 500)
	addEntry(t, r, "aaa", 500, 2, 500)

	r.Sort()

	all := r.All()
	assert.Equal(t, "aaa", all[0].UserID)
	assert.Equal(t, "bbb", all[1].UserID)
}

func TestRanking_RejectsDuplicates(t *testing.T) {
	r := NewRanking()
	addEntry(t, r, "u1", 100, 1, 100)

	err := r.Add(&Entry{UserID: "u1"})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	err = r.Add(nil)
	assert.ErrorIs(t, err, ErrNilEntry)
}

func TestEntry_Outranks(t *testing.T) {
	a := &Entry{UserID: "a", TotalLifetimePoints: 500, Level: 3, CurrentPoints: 400}
	b := &Entry{UserID: "b", TotalLifetimePoints: 500, Level: 2, CurrentPoints: 500}

	assert.True(t, a.Outranks(b))
	assert.False(t, b.Outranks(a))
}

func TestSnapshot_PageAndRank(t *testing.T) {
	r := NewRanking()
	addEntry(t, r, "u1", 900, 2, 900)
	addEntry(t, r, "u2", 500, 2, 500)
	addEntry(t, r, "u3", 300, 1, 300)
	r.Sort()

	snap := NewSnapshot("snap-1", r, time.Now().UTC())

	assert.Equal(t, 3, snap.Count())
	assert.Equal(t, Rank(2), snap.GetRank("u2"))
	assert.Equal(t, Rank(0), snap.GetRank("ghost"))

	page := snap.Page(2, 1)
	require.Len(t, page, 2)
	assert.Equal(t, "u2", page[0].UserID)
	assert.Equal(t, "u3", page[1].UserID)

	assert.Nil(t, snap.Page(10, 5))
}

func TestApplyRankChanges(t *testing.T) {
	old := NewRanking()
	addEntry(t, old, "u1", 900, 2, 900)
	addEntry(t, old, "u2", 500, 2, 500)
	old.Sort()
	previous := NewSnapshot("snap-1", old, time.Now().UTC())

	next := NewRanking()
	addEntry(t, next, "u2", 1200, 3, 1200)
	addEntry(t, next, "u1", 900, 2, 900)
	addEntry(t, next, "u3", 100, 1, 100)
	next.Sort()
	current := NewSnapshot("snap-2", next, time.Now().UTC())

	ApplyRankChanges(previous, current)

	assert.Equal(t, RankChange(1), current.GetByID("u2").RankChange)
	assert.Equal(t, RankChange(-1), current.GetByID("u1").RankChange)
	// Newcomers carry no change.
	assert.Equal(t, RankChange(0), current.GetByID("u3").RankChange)
}

func TestTimeframe_OnlyAllTimeSupported(t *testing.T) {
	assert.True(t, TimeframeAllTime.IsValid())
	assert.True(t, Timeframe("").IsValid())
	assert.False(t, Timeframe("weekly").IsValid())
	assert.False(t, Timeframe("monthly").IsValid())
}
