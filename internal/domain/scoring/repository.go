package scoring

import (
	"context"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Ledger is the append-only store of scoring transactions. Implementations
// must enforce at-most-once crediting per (user, reference) among completed
// rows and surface violations as shared.ErrDuplicateAward.
type Ledger interface {
	// Append writes a new ledger row. Returns shared.ErrDuplicateAward when
	// a completed row with the same (user, reference) already exists.
	Append(ctx context.Context, txn *Transaction) error

	// GetByID fetches a single row.
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// FindByReference fetches the completed row for a (user, reference)
	// pair, if any. Used to report the current state on duplicate awards.
	FindByReference(ctx context.Context, userID shared.UserID, ref Reference) (*Transaction, error)

	// ListByUser returns the user's rows most-recent-first, bounded by limit.
	ListByUser(ctx context.Context, userID shared.UserID, limit, offset int) ([]*Transaction, error)

	// CountByUser returns the total number of rows for the user.
	CountByUser(ctx context.Context, userID shared.UserID) (int64, error)

	// ListUnapplied returns completed rows whose aggregate increments never
	// committed, oldest-first. The reconciliation pass replays them.
	ListUnapplied(ctx context.Context, olderThan time.Time, limit int) ([]*Transaction, error)

	// MarkApplied flags a row as reflected in the aggregate.
	MarkApplied(ctx context.Context, id string) error
}

// ProgressStore is the mutable per-user aggregate store. Every mutation is
// an atomic per-field update; implementations must never read-modify-write
// the whole record, or concurrent awards for the same user will lose
// increments.
type ProgressStore interface {
	// Get fetches the user's progress record. Returns
	// shared.ErrProgressNotFound when none exists yet.
	Get(ctx context.Context, userID shared.UserID) (*UserProgress, error)

	// ApplyDelta creates the record if missing and commits the delta's
	// increments atomically, returning the post-increment state.
	ApplyDelta(ctx context.Context, userID shared.UserID, delta Delta) (*UserProgress, error)

	// RaiseLevel sets the stored level to newLevel if it is currently lower,
	// stamping the level-up time. Reports whether the level actually rose.
	RaiseLevel(ctx context.Context, userID shared.UserID, newLevel int, at time.Time) (bool, error)

	// UnlockAchievements set-unions the ids into the record and keeps the
	// count in sync. Returns the ids that were genuinely new.
	UnlockAchievements(ctx context.Context, userID shared.UserID, ids []string, at time.Time) ([]string, error)

	// RecordLogin claims today's login slot: sets the streak, raises the max
	// streak, increments total logins, and stamps the login time. The claim
	// is conditional on the stored login date still being older than today;
	// a lost race returns shared.ErrAlreadyProcessedToday.
	RecordLogin(ctx context.Context, userID shared.UserID, newStreak int, at time.Time) (*UserProgress, error)

	// SetFrozen freezes or unfreezes the record for leaderboard purposes.
	SetFrozen(ctx context.Context, userID shared.UserID, frozen bool) error
}

// Awarder binds a ledger append and the matching aggregate delta into one
// atomic unit. The postgres implementation runs both inside a single
// transaction; the in-memory implementation serializes on a mutex.
type Awarder interface {
	// Award appends the ledger row and applies its delta atomically,
	// returning the post-increment progress. A duplicate reference returns
	// shared.ErrDuplicateAward with no state change.
	Award(ctx context.Context, txn *Transaction) (*UserProgress, error)
}
