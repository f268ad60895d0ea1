package command

import (
	"context"
	"fmt"

	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FREEZE USER COMMAND
// Administrative freeze/unfreeze. Frozen users keep earning points but are
// hidden from the leaderboard until unfrozen.
// ══════════════════════════════════════════════════════════════════════════════

// FreezeUserCommand freezes or unfreezes a user's ranking visibility.
type FreezeUserCommand struct {
	// UserID is the affected user.
	UserID string

	// Frozen is the desired state.
	Frozen bool

	// Authenticated reports whether the caller passed authentication.
	Authenticated bool

	// Reason is recorded in the audit log line.
	Reason string
}

// Validate validates the command.
func (c FreezeUserCommand) Validate() error {
	if !c.Authenticated {
		return shared.ErrAuthRequired
	}
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	return nil
}

// FreezeUserHandler handles the FreezeUserCommand.
type FreezeUserHandler struct {
	progressStore scoring.ProgressStore
	cache         invalidator
}

// invalidator is the slice of the leaderboard cache the freeze path needs.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// NewFreezeUserHandler creates a new FreezeUserHandler. cache may be nil.
func NewFreezeUserHandler(progressStore scoring.ProgressStore, cache invalidator) *FreezeUserHandler {
	return &FreezeUserHandler{progressStore: progressStore, cache: cache}
}

// Handle executes the freeze state change and drops cached rankings so the
// change is visible on the next leaderboard read.
func (h *FreezeUserHandler) Handle(ctx context.Context, cmd FreezeUserCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.progressStore.SetFrozen(ctx, shared.UserID(cmd.UserID), cmd.Frozen); err != nil {
		return fmt.Errorf("freeze_user: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.Invalidate(ctx)
	}

	return nil
}
