// Package jobs contains implementations of the scoring engine's scheduled
// jobs.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/learnhub/scoring-engine/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE LEDGER JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileLedgerJob periodically replays completed ledger rows whose
// aggregate increments never committed. A crash between the ledger append
// and the progress update leaves such rows behind; this job restores the
// invariant that every completed row is reflected in exactly one aggregate
// update.
type ReconcileLedgerJob struct {
	handler *command.ReconcileLedgerHandler
	logger  *slog.Logger
	config  ReconcileLedgerConfig

	lastResult atomic.Value // *command.ReconcileLedgerResult
}

// ReconcileLedgerConfig contains configuration for the reconciliation job.
type ReconcileLedgerConfig struct {
	// MinAge is how old an unapplied row must be before it is replayed.
	// Fresh rows may belong to awards still in flight.
	MinAge time.Duration

	// BatchLimit caps the number of rows replayed per run.
	BatchLimit int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultReconcileLedgerConfig returns sensible defaults.
func DefaultReconcileLedgerConfig() ReconcileLedgerConfig {
	return ReconcileLedgerConfig{
		MinAge:     time.Minute,
		BatchLimit: 100,
		Timeout:    2 * time.Minute,
	}
}

// NewReconcileLedgerJob creates a new reconciliation job.
func NewReconcileLedgerJob(
	handler *command.ReconcileLedgerHandler,
	logger *slog.Logger,
	config ReconcileLedgerConfig,
) *ReconcileLedgerJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileLedgerJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *ReconcileLedgerJob) Name() string {
	return "reconcile_ledger"
}

// Description returns a human-readable description.
func (j *ReconcileLedgerJob) Description() string {
	return "Replays completed ledger rows whose aggregate updates never committed"
}

// Run executes one reconciliation pass.
func (j *ReconcileLedgerJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.handler.Handle(ctx, command.ReconcileLedgerCommand{
		OlderThan: time.Now().UTC().Add(-j.config.MinAge),
		Limit:     j.config.BatchLimit,
	})
	if err != nil {
		return err
	}

	j.lastResult.Store(result)

	if result.Scanned > 0 {
		j.logger.Info("ledger reconciliation pass completed",
			"scanned", result.Scanned,
			"replayed", result.Replayed,
			"failed", result.Failed,
		)
	}

	return nil
}

// LastResult returns the result of the most recent run, or nil.
func (j *ReconcileLedgerJob) LastResult() *command.ReconcileLedgerResult {
	result := j.lastResult.Load()
	if result == nil {
		return nil
	}
	return result.(*command.ReconcileLedgerResult)
}
