// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Infrastructure errors
	ErrStorageFailure     = errors.New("storage failure")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "scoring", "leaderboard"
	Op      string // Operation that failed, e.g., "Append", "AwardPoints"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Scoring domain errors
var (
	ErrDuplicateAward        = NewDomainError("scoring", "Append", ErrAlreadyExists, "points already credited for this reference")
	ErrInvalidPoints         = NewDomainError("scoring", "Validate", ErrValidation, "points must be a non-zero integer")
	ErrInvalidAction         = NewDomainError("scoring", "Validate", ErrInvalidInput, "unknown scoring action")
	ErrAuthRequired          = NewDomainError("scoring", "Authorize", ErrUnauthorized, "authentication required")
	ErrProgressNotFound      = NewDomainError("scoring", "GetProgress", ErrNotFound, "user progress not found")
	ErrTransactionNotFound   = NewDomainError("scoring", "GetTransaction", ErrNotFound, "scoring transaction not found")
	ErrAlreadyProcessedToday = NewDomainError("scoring", "ProcessDailyLogin", ErrAlreadyProcessed, "daily login already processed today")
	ErrUserFrozen            = NewDomainError("scoring", "AwardPoints", ErrInvalidState, "user progress is frozen")
	ErrStorage               = NewDomainError("scoring", "Store", ErrStorageFailure, "storage operation failed")
)

// Leaderboard domain errors
var (
	ErrLeaderboardUnavailable = NewDomainError("leaderboard", "Get", ErrServiceUnavailable, "leaderboard unavailable")
	ErrRankNotFound           = NewDomainError("leaderboard", "GetUserRank", ErrNotFound, "user not ranked")
	ErrInvalidPagination      = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid pagination parameters")
	ErrUnsupportedTimeframe   = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "only all-time ranking is supported")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateAward checks if the error reports an already-credited reference.
// Callers must treat this as "already credited", not as a hard failure.
func IsDuplicateAward(err error) bool {
	return errors.Is(err, ErrDuplicateAward)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsAlreadyProcessed checks if the error reports an idempotent repeat call.
func IsAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed)
}

// IsStorage checks if the error comes from the storage layer.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorageFailure) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
