// Package leaderboard contains the read-only ranked projection over user
// progress. Ranking is all-time: lifetime points descending, then level,
// then current points, with user id as the final deterministic tie-break.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank is a 1-based position in the leaderboard.
type Rank int

// IsValid checks that the rank is positive.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 reports whether the rank is within the top 10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// IsTop100 reports whether the rank is within the top 100.
func (r Rank) IsTop100() bool {
	return r >= 1 && r <= 100
}

// String returns the display form.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange is the position delta against the previous snapshot.
// Positive means the user climbed.
type RankChange int

// Abs returns the absolute change.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String returns the signed display form.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// Timeframe selects the ranking window. Only all-time aggregation exists;
// the value is validated so that unsupported windows are rejected loudly
// instead of silently returning all-time data.
type Timeframe string

const (
	// TimeframeAllTime - the only supported ranking window.
	TimeframeAllTime Timeframe = "all_time"
)

// IsValid checks that the timeframe is supported.
func (t Timeframe) IsValid() bool {
	return t == TimeframeAllTime || t == ""
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one row of the ranked projection.
type Entry struct {
	// Rank - 1-based position.
	Rank Rank

	// UserID - the ranked user.
	UserID string

	// TotalLifetimePoints - primary sort key, descending.
	TotalLifetimePoints int64

	// Level - secondary sort key, descending.
	Level int

	// CurrentPoints - tertiary sort key, descending.
	CurrentPoints int64

	// AchievementCount - shown alongside the rank.
	AchievementCount int

	// RankChange - movement since the previous snapshot.
	RankChange RankChange

	// UpdatedAt - when the underlying progress record last changed.
	UpdatedAt time.Time
}

// NewEntry creates a leaderboard entry with validation.
func NewEntry(rank Rank, userID string, lifetime int64, level int, current int64) (*Entry, error) {
	if !rank.IsValid() {
		return nil, ErrInvalidRank
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if lifetime < 0 {
		return nil, ErrInvalidScore
	}

	return &Entry{
		Rank:                rank,
		UserID:              userID,
		TotalLifetimePoints: lifetime,
		Level:               level,
		CurrentPoints:       current,
		UpdatedAt:           time.Now().UTC(),
	}, nil
}

// OutranksFields reports whether the sort key (lifetime, level, current,
// user id) places a user with these fields ahead of the entry. This is the
// single ordering predicate; SQL rank queries mirror it with a tuple
// comparison.
func (e *Entry) OutranksFields(lifetime int64, level int, current int64, userID string) bool {
	if e.TotalLifetimePoints != lifetime {
		return e.TotalLifetimePoints > lifetime
	}
	if e.Level != level {
		return e.Level > level
	}
	if e.CurrentPoints != current {
		return e.CurrentPoints > current
	}
	return e.UserID < userID
}

// Outranks reports whether the entry sorts ahead of the other.
func (e *Entry) Outranks(other *Entry) bool {
	return e.OutranksFields(other.TotalLifetimePoints, other.Level, other.CurrentPoints, other.UserID)
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String returns a short representation for logging.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, User: %s, Lifetime: %d, Level: %d}",
		e.Rank, e.UserID, e.TotalLifetimePoints, e.Level)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (sorted list builder)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking accumulates entries and sorts them into ranked order. It is the
// in-memory builder behind snapshot rebuilds and the memory-backed store.
type Ranking struct {
	entries []*Entry
	byID    map[string]*Entry
}

// NewRanking creates an empty ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[string]*Entry),
	}
}

// Add appends an entry without sorting.
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.UserID]; exists {
		return ErrDuplicateUser
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.UserID] = entry
	return nil
}

// Sort orders the entries by the ranking predicate and assigns 1-based
// ranks. The user-id tie-break makes ranks unique and the order
// deterministic across rebuilds.
func (r *Ranking) Sort() {
	sort.Slice(r.entries, func(i, j int) bool {
		return r.entries[i].Outranks(r.entries[j])
	})

	for i, entry := range r.entries {
		entry.Rank = Rank(i + 1)
	}
}

// GetByID returns the entry for a user, or nil.
func (r *Ranking) GetByID(userID string) *Entry {
	return r.byID[userID]
}

// Slice returns a copy of entries [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Top returns a copy of the first n entries.
func (r *Ranking) Top(n int) []*Entry {
	return r.Slice(0, n)
}

// Count returns the number of entries.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All returns a copy of every entry in ranked order.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRank - rank must be positive.
	ErrInvalidRank = errors.New("invalid rank: must be positive")

	// ErrInvalidUserID - user id cannot be empty.
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidScore - lifetime points cannot be negative.
	ErrInvalidScore = errors.New("invalid score: must be non-negative")

	// ErrNilEntry - cannot add a nil entry.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateUser - a user can rank at most once.
	ErrDuplicateUser = errors.New("user already exists in ranking")

	// ErrSnapshotNotFound - no snapshot has been built yet.
	ErrSnapshotNotFound = errors.New("leaderboard snapshot not found")
)
