package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository is the read-side contract over the ranked projection. The
// postgres implementation ranks directly off the user progress table;
// frozen and non-active users never appear in any result.
type Repository interface {
	// GetPage returns one page of the ranking plus the total count of
	// ranked users.
	GetPage(ctx context.Context, limit, offset int) ([]*Entry, int64, error)

	// GetUserRank returns the user's current entry with its 1-based rank.
	// Returns shared.ErrRankNotFound when the user is unranked (unknown,
	// frozen, or non-active).
	GetUserRank(ctx context.Context, userID string) (*Entry, error)

	// GetTotalCount returns the number of ranked users.
	GetTotalCount(ctx context.Context) (int64, error)

	// BuildRanking loads every eligible user into a sorted Ranking.
	// Used by the snapshot rebuild job, not by request paths.
	BuildRanking(ctx context.Context) (*Ranking, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache holds hot leaderboard pages and per-user ranks with a TTL. A miss
// falls through to the Repository; cache failures must degrade to misses,
// never to request failures.
type Cache interface {
	// GetPage returns a cached page, or nil on miss.
	GetPage(ctx context.Context, limit, offset int) ([]*Entry, int64, error)

	// SetPage stores a page and the total count with a TTL.
	SetPage(ctx context.Context, limit, offset int, entries []*Entry, total int64, ttl time.Duration) error

	// GetUserRank returns a cached rank entry, or nil on miss.
	GetUserRank(ctx context.Context, userID string) (*Entry, error)

	// SetUserRank stores a user's rank entry with a TTL.
	SetUserRank(ctx context.Context, entry *Entry, ttl time.Duration) error

	// GetSnapshot returns the cached snapshot, or nil on miss.
	GetSnapshot(ctx context.Context) (*Snapshot, error)

	// SetSnapshot stores the latest rebuilt snapshot.
	SetSnapshot(ctx context.Context, snapshot *Snapshot, ttl time.Duration) error

	// Invalidate drops every cached leaderboard key.
	Invalidate(ctx context.Context) error
}
