package leaderboard

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is the leaderboard at one moment in time. The rebuild job
// materializes snapshots periodically; rank-change arrows come from diffing
// consecutive snapshots.
type Snapshot struct {
	// ID - unique snapshot identifier.
	ID string

	// SnapshotAt - when the snapshot was built.
	SnapshotAt time.Time

	// TotalUsers - number of ranked users.
	TotalUsers int

	// TotalPoints - summed lifetime points of all ranked users.
	TotalPoints int64

	// Entries - entries in ranked order.
	Entries []*Entry

	// byID - lookup index, rebuilt after deserialization.
	byID map[string]*Entry
}

// NewSnapshot builds a snapshot from a sorted ranking.
func NewSnapshot(id string, ranking *Ranking, at time.Time) *Snapshot {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if ranking == nil {
		return &Snapshot{
			ID:         id,
			SnapshotAt: at,
			Entries:    make([]*Entry, 0),
			byID:       make(map[string]*Entry),
		}
	}

	entries := ranking.All()
	byID := make(map[string]*Entry, len(entries))

	var totalPoints int64
	for _, entry := range entries {
		byID[entry.UserID] = entry
		totalPoints += entry.TotalLifetimePoints
	}

	return &Snapshot{
		ID:          id,
		SnapshotAt:  at,
		TotalUsers:  len(entries),
		TotalPoints: totalPoints,
		Entries:     entries,
		byID:        byID,
	}
}

// GetByID returns the entry for a user, or nil.
func (s *Snapshot) GetByID(userID string) *Entry {
	if s.byID == nil {
		return nil
	}
	return s.byID[userID]
}

// GetRank returns the user's rank, or 0 if unranked.
func (s *Snapshot) GetRank(userID string) Rank {
	entry := s.GetByID(userID)
	if entry == nil {
		return 0
	}
	return entry.Rank
}

// Page returns a copy of entries at [offset : offset+limit).
func (s *Snapshot) Page(limit, offset int) []*Entry {
	if limit <= 0 || offset < 0 || offset >= len(s.Entries) {
		return nil
	}

	to := offset + limit
	if to > len(s.Entries) {
		to = len(s.Entries)
	}

	result := make([]*Entry, to-offset)
	copy(result, s.Entries[offset:to])
	return result
}

// IsEmpty reports whether the snapshot has no entries.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

// Count returns the number of entries.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// Contains reports whether the user is ranked in this snapshot.
func (s *Snapshot) Contains(userID string) bool {
	return s.GetByID(userID) != nil
}

// RebuildIndex rebuilds the byID index after deserialization.
func (s *Snapshot) RebuildIndex() {
	s.byID = make(map[string]*Entry, len(s.Entries))
	for _, entry := range s.Entries {
		s.byID[entry.UserID] = entry
	}
}

// String returns a short representation for logging.
func (s *Snapshot) String() string {
	return fmt.Sprintf("Snapshot{ID: %s, Users: %d, At: %s}",
		s.ID, s.TotalUsers, s.SnapshotAt.Format(time.RFC3339))
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT DIFF
// ══════════════════════════════════════════════════════════════════════════════

// ApplyRankChanges stamps RankChange on the new snapshot's entries by
// comparing against the previous snapshot. Users absent from the previous
// snapshot keep a zero change. The previous snapshot may be nil.
func ApplyRankChanges(previous, current *Snapshot) {
	if current == nil {
		return
	}
	if previous == nil || previous.IsEmpty() {
		return
	}

	for _, entry := range current.Entries {
		old := previous.GetByID(entry.UserID)
		if old == nil {
			continue
		}
		// Positive means climbed: was #10, now #5 = +5.
		entry.RankChange = RankChange(int(old.Rank) - int(entry.Rank))
	}
}
