package command

import (
	"context"
	"fmt"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE LEDGER COMMAND
// Replays completed ledger rows whose aggregate increments never committed
// (a crash between the append and the counter update leaves the row with
// applied=false). The ledger is the source of truth; replaying restores the
// aggregate without double-crediting.
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileLedgerCommand bounds one reconciliation pass.
type ReconcileLedgerCommand struct {
	// OlderThan only replays rows created before this instant, keeping the
	// pass clear of awards still in flight. Defaults to one minute ago.
	OlderThan time.Time

	// Limit bounds the number of rows per pass. Defaults to 100.
	Limit int
}

// ReconcileLedgerResult summarizes one pass.
type ReconcileLedgerResult struct {
	// Scanned is the number of unapplied rows found.
	Scanned int `json:"scanned"`

	// Replayed is the number of rows successfully applied.
	Replayed int `json:"replayed"`

	// Failed is the number of rows that still could not be applied.
	Failed int `json:"failed"`
}

// ReconcileLedgerHandler handles the ReconcileLedgerCommand.
type ReconcileLedgerHandler struct {
	ledger         scoring.Ledger
	progressStore  scoring.ProgressStore
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
}

// NewReconcileLedgerHandler creates a new ReconcileLedgerHandler.
func NewReconcileLedgerHandler(
	ledger scoring.Ledger,
	progressStore scoring.ProgressStore,
	eventPublisher shared.EventPublisher,
	retrier *retry.Retrier,
) *ReconcileLedgerHandler {
	return &ReconcileLedgerHandler{
		ledger:         ledger,
		progressStore:  progressStore,
		eventPublisher: eventPublisher,
		retrier:        retrier,
	}
}

// Handle executes one reconciliation pass. Per-row failures are counted,
// not fatal; the next pass retries them.
func (h *ReconcileLedgerHandler) Handle(ctx context.Context, cmd ReconcileLedgerCommand) (*ReconcileLedgerResult, error) {
	olderThan := cmd.OlderThan
	if olderThan.IsZero() {
		olderThan = time.Now().UTC().Add(-time.Minute)
	}
	limit := cmd.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := h.ledger.ListUnapplied(ctx, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile_ledger: list unapplied: %w", err)
	}

	result := &ReconcileLedgerResult{Scanned: len(rows)}

	for _, txn := range rows {
		if err := h.replay(ctx, txn); err != nil {
			result.Failed++
			continue
		}
		result.Replayed++
	}

	if h.eventPublisher != nil && result.Replayed > 0 {
		event := reconciledEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventLedgerReconciled, "ledger"),
			Scanned:   result.Scanned,
			Replayed:  result.Replayed,
			Failed:    result.Failed,
		}
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}

// replay applies one row's delta and marks it applied, retrying transient
// storage failures.
func (h *ReconcileLedgerHandler) replay(ctx context.Context, txn *scoring.Transaction) error {
	op := func(ctx context.Context) error {
		progress, err := h.progressStore.ApplyDelta(ctx, txn.UserID, txn.Delta())
		if err != nil {
			return err
		}

		if derived := progress.DerivedLevel(); derived > progress.Level {
			if _, err := h.progressStore.RaiseLevel(ctx, txn.UserID, derived, txn.ProcessedAt); err != nil {
				return err
			}
		}

		return h.ledger.MarkApplied(ctx, txn.ID)
	}

	if h.retrier != nil {
		return h.retrier.Do(ctx, op)
	}
	return op(ctx)
}

// reconciledEvent reports the outcome of a reconciliation pass.
type reconciledEvent struct {
	shared.BaseEvent
	Scanned  int
	Replayed int
	Failed   int
}

// Payload implements shared.Event.
func (e reconciledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"scanned":  e.Scanned,
		"replayed": e.Replayed,
		"failed":   e.Failed,
	}
}
