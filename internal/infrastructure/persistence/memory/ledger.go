// Package memory provides in-memory implementations of the storage
// interfaces. They back unit tests and local development; correctness
// under concurrency comes from a coarse mutex instead of SQL atomicity.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// Ledger is an in-memory scoring.Ledger.
type Ledger struct {
	mu     sync.RWMutex
	byID   map[string]*scoring.Transaction
	byUser map[shared.UserID][]*scoring.Transaction
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byID:   make(map[string]*scoring.Transaction),
		byUser: make(map[shared.UserID][]*scoring.Transaction),
	}
}

// Append implements scoring.Ledger.
func (l *Ledger) Append(_ context.Context, txn *scoring.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(txn)
}

// appendLocked enforces the (user, reference) uniqueness among completed
// rows, mirroring the partial unique index of the SQL schema.
func (l *Ledger) appendLocked(txn *scoring.Transaction) error {
	if _, exists := l.byID[txn.ID]; exists {
		return shared.ErrDuplicateAward
	}

	if !txn.Reference.IsZero() && txn.Status == scoring.StatusCompleted {
		for _, existing := range l.byUser[txn.UserID] {
			if existing.Status == scoring.StatusCompleted && existing.Reference == txn.Reference {
				return shared.ErrDuplicateAward
			}
		}
	}

	clone := txn.Clone()
	l.byID[clone.ID] = clone
	l.byUser[clone.UserID] = append(l.byUser[clone.UserID], clone)
	return nil
}

// GetByID implements scoring.Ledger.
func (l *Ledger) GetByID(_ context.Context, id string) (*scoring.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txn, ok := l.byID[id]
	if !ok {
		return nil, shared.ErrTransactionNotFound
	}
	return txn.Clone(), nil
}

// FindByReference implements scoring.Ledger.
func (l *Ledger) FindByReference(_ context.Context, userID shared.UserID, ref scoring.Reference) (*scoring.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, txn := range l.byUser[userID] {
		if txn.Status == scoring.StatusCompleted && txn.Reference == ref {
			return txn.Clone(), nil
		}
	}
	return nil, shared.ErrTransactionNotFound
}

// ListByUser implements scoring.Ledger, most-recent-first.
func (l *Ledger) ListByUser(_ context.Context, userID shared.UserID, limit, offset int) ([]*scoring.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows := make([]*scoring.Transaction, len(l.byUser[userID]))
	for i, txn := range l.byUser[userID] {
		rows[i] = txn.Clone()
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ProcessedAt.After(rows[j].ProcessedAt)
	})

	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

// CountByUser implements scoring.Ledger.
func (l *Ledger) CountByUser(_ context.Context, userID shared.UserID) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.byUser[userID])), nil
}

// ListUnapplied implements scoring.Ledger, oldest-first.
func (l *Ledger) ListUnapplied(_ context.Context, olderThan time.Time, limit int) ([]*scoring.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var rows []*scoring.Transaction
	for _, txn := range l.byID {
		if !txn.Applied && txn.Status == scoring.StatusCompleted && txn.CreatedAt.Before(olderThan) {
			rows = append(rows, txn.Clone())
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// MarkApplied implements scoring.Ledger.
func (l *Ledger) MarkApplied(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.byID[id]
	if !ok {
		return shared.ErrTransactionNotFound
	}
	txn.Applied = true
	return nil
}
