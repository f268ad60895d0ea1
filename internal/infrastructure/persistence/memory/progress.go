package memory

import (
	"context"
	"sync"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY PROGRESS STORE
// ══════════════════════════════════════════════════════════════════════════════

// ProgressStore is an in-memory scoring.ProgressStore.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[shared.UserID]*scoring.UserProgress
}

// NewProgressStore creates an empty in-memory progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[shared.UserID]*scoring.UserProgress)}
}

// Get implements scoring.ProgressStore.
func (s *ProgressStore) Get(_ context.Context, userID shared.UserID) (*scoring.UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.records[userID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return p.Clone(), nil
}

// ApplyDelta implements scoring.ProgressStore.
func (s *ProgressStore) ApplyDelta(_ context.Context, userID shared.UserID, delta scoring.Delta) (*scoring.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyDeltaLocked(userID, delta), nil
}

func (s *ProgressStore) applyDeltaLocked(userID shared.UserID, delta scoring.Delta) *scoring.UserProgress {
	p := s.getOrCreateLocked(userID, delta.EarnedAt)
	p.Apply(delta)
	return p.Clone()
}

func (s *ProgressStore) getOrCreateLocked(userID shared.UserID, now time.Time) *scoring.UserProgress {
	p, ok := s.records[userID]
	if !ok {
		p = scoring.NewUserProgress(userID, now)
		s.records[userID] = p
	}
	return p
}

// RaiseLevel implements scoring.ProgressStore.
func (s *ProgressStore) RaiseLevel(_ context.Context, userID shared.UserID, newLevel int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[userID]
	if !ok {
		return false, shared.ErrProgressNotFound
	}
	if p.Level >= newLevel {
		return false, nil
	}

	p.Level = newLevel
	p.LastLevelUpAt = at
	p.UpdatedAt = at
	return true, nil
}

// UnlockAchievements implements scoring.ProgressStore.
func (s *ProgressStore) UnlockAchievements(_ context.Context, userID shared.UserID, ids []string, at time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[userID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}

	var added []string
	for _, id := range ids {
		if p.HasAchievement(id) {
			continue
		}
		p.Achievements = append(p.Achievements, id)
		added = append(added, id)
	}

	if len(added) > 0 {
		p.AchievementCount = len(p.Achievements)
		p.LastAchievementAt = at
		p.UpdatedAt = at
	}
	return added, nil
}

// RecordLogin implements scoring.ProgressStore. The claim is conditional on
// the stored login date being older than the given day, matching the SQL
// store's conditional update.
func (s *ProgressStore) RecordLogin(_ context.Context, userID shared.UserID, newStreak int, at time.Time) (*scoring.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreateLocked(userID, at)

	if !p.LastLoginAt.IsZero() && timeutil.SameDay(p.LastLoginAt, at) {
		return nil, shared.ErrAlreadyProcessedToday
	}

	p.DailyLoginStreak = newStreak
	if newStreak > p.MaxDailyLoginStreak {
		p.MaxDailyLoginStreak = newStreak
	}
	p.TotalLogins++
	p.LastLoginAt = at
	p.UpdatedAt = at
	return p.Clone(), nil
}

// SetFrozen implements scoring.ProgressStore.
func (s *ProgressStore) SetFrozen(_ context.Context, userID shared.UserID, frozen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[userID]
	if !ok {
		return shared.ErrProgressNotFound
	}

	p.IsFrozen = frozen
	if frozen {
		p.Status = scoring.ProgressStatusFrozen
	} else {
		p.Status = scoring.ProgressStatusActive
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// All returns a clone of every record, for the leaderboard fake.
func (s *ProgressStore) All() []*scoring.UserProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*scoring.UserProgress, 0, len(s.records))
	for _, p := range s.records {
		out = append(out, p.Clone())
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY AWARDER
// ══════════════════════════════════════════════════════════════════════════════

// Awarder binds the in-memory ledger and progress store into an atomic
// scoring.Awarder by serializing on the ledger mutex ordering: append
// first, then apply, under one lock acquisition sequence.
type Awarder struct {
	mu       sync.Mutex
	ledger   *Ledger
	progress *ProgressStore
}

// NewAwarder creates an in-memory awarder over the two stores.
func NewAwarder(ledger *Ledger, progress *ProgressStore) *Awarder {
	return &Awarder{ledger: ledger, progress: progress}
}

// Award implements scoring.Awarder.
func (a *Awarder) Award(ctx context.Context, txn *scoring.Transaction) (*scoring.UserProgress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ledger.Append(ctx, txn); err != nil {
		return nil, err
	}

	progress, err := a.progress.ApplyDelta(ctx, txn.UserID, txn.Delta())
	if err != nil {
		return nil, err
	}

	if err := a.ledger.MarkApplied(ctx, txn.ID); err != nil {
		return nil, err
	}
	txn.Applied = true

	return progress, nil
}
