package shared

import (
	"regexp"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID identifies a platform user. The scoring engine treats it as an
// opaque, non-empty token owned by the account subsystem.
type UserID string

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,63}$`)

// IsValid checks that the user ID is a well-formed opaque token.
func (u UserID) IsValid() bool {
	return userIDRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty returns true if the ID is empty.
func (u UserID) IsEmpty() bool {
	return strings.TrimSpace(string(u)) == ""
}

// NewUserID validates and creates a UserID.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user id")
	}
	return uid, nil
}

// TenantID identifies a tenant on the platform. An empty tenant means the
// default (single-tenant) installation.
type TenantID string

// IsValid checks the tenant ID format.
func (t TenantID) IsValid() bool {
	if t == "" {
		return true
	}
	return userIDRegex.MatchString(string(t))
}

// String returns the string representation.
func (t TenantID) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// POINTS
// ══════════════════════════════════════════════════════════════════════════════

// Points represents a signed point amount. Ledger rows are always non-zero;
// aggregate totals may legitimately be zero.
type Points int64

// IsZero reports whether the amount is zero.
func (p Points) IsZero() bool {
	return p == 0
}

// IsPositive reports whether the amount is positive.
func (p Points) IsPositive() bool {
	return p > 0
}

// Abs returns the absolute value.
func (p Points) Abs() Points {
	if p < 0 {
		return -p
	}
	return p
}

// Int64 returns the amount as int64.
func (p Points) Int64() int64 {
	return int64(p)
}
