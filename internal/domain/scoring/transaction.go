// Package scoring contains the core domain model of the gamification engine:
// the immutable points ledger, the per-user progress aggregate, the level
// calculator, the achievement catalog, and the daily-login streak machine.
// This is the heart of the business logic - no external dependencies beyond
// the shared domain package.
package scoring

import (
	"strings"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Action identifies the kind of user action that earned (or cost) points.
type Action string

const (
	// ActionPurchase - a completed order on the platform.
	ActionPurchase Action = "purchase"
	// ActionCourseComplete - a course finished to 100%.
	ActionCourseComplete Action = "course_complete"
	// ActionReferral - a referred user completed registration.
	ActionReferral Action = "referral"
	// ActionDailyLogin - the once-per-calendar-day login bonus.
	ActionDailyLogin Action = "daily_login"
	// ActionWorkshopBooking - a workshop seat booked.
	ActionWorkshopBooking Action = "workshop_booking"
	// ActionReviewWrite - a product or course review written.
	ActionReviewWrite Action = "review_write"
	// ActionProfileComplete - the user profile reached 100% completion.
	ActionProfileComplete Action = "profile_complete"
	// ActionSocialShare - content shared to a social network.
	ActionSocialShare Action = "social_share"
	// ActionBonus - a promotional or campaign bonus.
	ActionBonus Action = "bonus"
	// ActionPenalty - a deduction from spendable points.
	ActionPenalty Action = "penalty"
	// ActionManualAdjustment - an administrative correction.
	ActionManualAdjustment Action = "manual_adjustment"
)

// AllActions lists every valid action in a stable order.
func AllActions() []Action {
	return []Action{
		ActionPurchase,
		ActionCourseComplete,
		ActionReferral,
		ActionDailyLogin,
		ActionWorkshopBooking,
		ActionReviewWrite,
		ActionProfileComplete,
		ActionSocialShare,
		ActionBonus,
		ActionPenalty,
		ActionManualAdjustment,
	}
}

// IsValid checks that the action is one of the known kinds.
func (a Action) IsValid() bool {
	switch a {
	case ActionPurchase, ActionCourseComplete, ActionReferral, ActionDailyLogin,
		ActionWorkshopBooking, ActionReviewWrite, ActionProfileComplete,
		ActionSocialShare, ActionBonus, ActionPenalty, ActionManualAdjustment:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (a Action) String() string {
	return string(a)
}

// Bucket identifies the per-source breakdown counter on UserProgress.
type Bucket string

const (
	// BucketPurchases accumulates points earned from purchases.
	BucketPurchases Bucket = "purchases"
	// BucketCourses accumulates points earned from course completions.
	BucketCourses Bucket = "courses"
	// BucketReferrals accumulates points earned from referrals.
	BucketReferrals Bucket = "referrals"
	// BucketActivities accumulates points from logins, bookings, reviews,
	// profile completion, and social shares.
	BucketActivities Bucket = "activities"
	// BucketBonuses accumulates promotional bonuses and positive adjustments.
	BucketBonuses Bucket = "bonuses"
	// BucketNone marks deltas that never touch the lifetime breakdown
	// (penalties and negative adjustments, which reduce spendable points only).
	BucketNone Bucket = ""
)

// Bucket returns the breakdown bucket credited by the action. Negative
// amounts for penalty and manual_adjustment bypass the breakdown entirely;
// see Delta.
func (a Action) Bucket() Bucket {
	switch a {
	case ActionPurchase:
		return BucketPurchases
	case ActionCourseComplete:
		return BucketCourses
	case ActionReferral:
		return BucketReferrals
	case ActionDailyLogin, ActionWorkshopBooking, ActionReviewWrite,
		ActionProfileComplete, ActionSocialShare:
		return BucketActivities
	case ActionBonus, ActionManualAdjustment:
		return BucketBonuses
	default:
		return BucketNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of a ledger row. Rows are written as
// completed by the real-time path; the other states exist for administrative
// imports and future expiry handling.
type Status string

const (
	// StatusPending - recorded but not yet credited.
	StatusPending Status = "pending"
	// StatusCompleted - credited; participates in the idempotency constraint.
	StatusCompleted Status = "completed"
	// StatusCancelled - superseded by an inverse transaction.
	StatusCancelled Status = "cancelled"
	// StatusExpired - never credited before its validity window closed.
	StatusExpired Status = "expired"
)

// IsValid checks that the status is one of the known states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EXTERNAL REFERENCE
// ══════════════════════════════════════════════════════════════════════════════

// Reference links a transaction to the external event that produced it
// (an order, a course enrollment, a login day). The pair
// (user, reference_id, reference_type) is unique among completed rows and is
// the sole idempotency guard against retried external calls.
type Reference struct {
	// ID - external identifier, e.g. an order ID or a calendar date.
	ID string

	// Type - namespace of the identifier, e.g. "order" or "daily_login".
	Type string
}

// IsZero reports whether no reference was supplied.
func (r Reference) IsZero() bool {
	return r.ID == "" && r.Type == ""
}

// IsValid checks that either both parts are set or neither is.
func (r Reference) IsValid() bool {
	if r.IsZero() {
		return true
	}
	return strings.TrimSpace(r.ID) != "" && strings.TrimSpace(r.Type) != ""
}

// String returns "type:id" for logging.
func (r Reference) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Type + ":" + r.ID
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION (immutable ledger row)
// ══════════════════════════════════════════════════════════════════════════════

// Transaction is one immutable row of the points ledger. It is created once
// and never mutated; a correction is a new transaction with inverse sign.
type Transaction struct {
	// ID - unique transaction identifier (UUID in string form).
	ID string

	// UserID - the credited user.
	UserID shared.UserID

	// Points - signed point amount; never zero.
	Points shared.Points

	// Action - what the user did to earn (or lose) the points.
	Action Action

	// Status - lifecycle state; the real-time path always writes completed.
	Status Status

	// Description - human-readable note for statements and support.
	Description string

	// Metadata - typed, action-specific payload (see metadata.go).
	Metadata Metadata

	// Reference - optional link to the external originating event.
	Reference Reference

	// OrderID - optional order linkage for purchase-driven awards.
	OrderID string

	// CourseID - optional course linkage for course-driven awards.
	CourseID string

	// Applied - true once the aggregate increments for this row committed.
	// Rows with Applied=false are replayed by the reconciliation pass.
	Applied bool

	// ProcessedAt - when the row was credited.
	ProcessedAt time.Time

	// CreatedAt - when the row was written.
	CreatedAt time.Time
}

// NewTransactionParams contains the parameters for creating a ledger row.
type NewTransactionParams struct {
	ID          string
	UserID      shared.UserID
	Points      shared.Points
	Action      Action
	Description string
	Metadata    Metadata
	Reference   Reference
	OrderID     string
	CourseID    string
	Now         time.Time
}

// NewTransaction creates a completed ledger row with full validation.
func NewTransaction(params NewTransactionParams) (*Transaction, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("scoring", "NewTransaction", shared.ErrInvalidID, "transaction id is required")
	}

	if !params.UserID.IsValid() {
		return nil, shared.NewDomainError("scoring", "NewTransaction", shared.ErrInvalidID, "invalid user id")
	}

	if !params.Action.IsValid() {
		return nil, shared.ErrInvalidAction
	}

	if err := ValidatePoints(params.Action, params.Points); err != nil {
		return nil, err
	}

	if !params.Reference.IsValid() {
		return nil, shared.NewDomainError("scoring", "NewTransaction", shared.ErrInvalidInput, "reference requires both id and type")
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Transaction{
		ID:          params.ID,
		UserID:      params.UserID,
		Points:      params.Points,
		Action:      params.Action,
		Status:      StatusCompleted,
		Description: strings.TrimSpace(params.Description),
		Metadata:    params.Metadata,
		Reference:   params.Reference,
		OrderID:     params.OrderID,
		CourseID:    params.CourseID,
		Applied:     false,
		ProcessedAt: now,
		CreatedAt:   now,
	}, nil
}

// ValidatePoints enforces the sign rules per action: zero is never allowed,
// penalties must be negative, and every other action except
// manual_adjustment must be positive.
func ValidatePoints(action Action, points shared.Points) error {
	if points.IsZero() {
		return shared.ErrInvalidPoints
	}

	switch action {
	case ActionPenalty:
		if points.IsPositive() {
			return shared.WrapError("scoring", "ValidatePoints", shared.ErrValidation, "penalty points must be negative", nil)
		}
	case ActionManualAdjustment:
		// Adjustments may go either way.
	default:
		if !points.IsPositive() {
			return shared.WrapError("scoring", "ValidatePoints", shared.ErrValidation, "points must be positive for this action", nil)
		}
	}

	return nil
}

// IsCredit reports whether the transaction increases lifetime points.
func (t *Transaction) IsCredit() bool {
	return t.Points.IsPositive()
}

// Delta derives the aggregate delta this transaction commits to the
// user's progress record.
func (t *Transaction) Delta() Delta {
	return NewDelta(t.Action, t.Points, t.ProcessedAt)
}

// Clone returns a copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
