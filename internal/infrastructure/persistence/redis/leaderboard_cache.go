package redis

import (
	"context"
	"errors"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache on top of the generic Redis
// client. Pages and per-user ranks live under short TTLs keyed by their
// query parameters; the rebuilt snapshot lives under a single long-lived
// key. A miss is reported as nil results with a nil error so callers fall
// through to PostgreSQL.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// cachedPage is the serialized form of one leaderboard page.
type cachedPage struct {
	Entries []*leaderboard.Entry `json:"entries"`
	Total   int64                `json:"total"`
}

// GetPage returns a cached page, or nil on miss.
func (lc *LeaderboardCache) GetPage(ctx context.Context, limit, offset int) ([]*leaderboard.Entry, int64, error) {
	var page cachedPage
	err := lc.cache.Get(ctx, LeaderboardPageKey(limit, offset), &page)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return page.Entries, page.Total, nil
}

// SetPage stores a page and the total count with a TTL.
func (lc *LeaderboardCache) SetPage(ctx context.Context, limit, offset int, entries []*leaderboard.Entry, total int64, ttl time.Duration) error {
	return lc.cache.Set(ctx, LeaderboardPageKey(limit, offset), cachedPage{
		Entries: entries,
		Total:   total,
	}, ttl)
}

// GetUserRank returns a cached rank entry, or nil on miss.
func (lc *LeaderboardCache) GetUserRank(ctx context.Context, userID string) (*leaderboard.Entry, error) {
	var entry leaderboard.Entry
	err := lc.cache.Get(ctx, LeaderboardRankKey(userID), &entry)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// SetUserRank stores a user's rank entry with a TTL.
func (lc *LeaderboardCache) SetUserRank(ctx context.Context, entry *leaderboard.Entry, ttl time.Duration) error {
	if entry == nil {
		return leaderboard.ErrNilEntry
	}
	return lc.cache.Set(ctx, LeaderboardRankKey(entry.UserID), entry, ttl)
}

// GetSnapshot returns the cached snapshot, or nil on miss. The user index
// is rebuilt after deserialization; only the entry list travels through
// Redis.
func (lc *LeaderboardCache) GetSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	var snapshot leaderboard.Snapshot
	err := lc.cache.Get(ctx, LeaderboardSnapshotKey(), &snapshot)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	snapshot.RebuildIndex()
	return &snapshot, nil
}

// SetSnapshot stores the latest rebuilt snapshot.
func (lc *LeaderboardCache) SetSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot, ttl time.Duration) error {
	if snapshot == nil {
		return leaderboard.ErrSnapshotNotFound
	}
	return lc.cache.Set(ctx, LeaderboardSnapshotKey(), snapshot, ttl)
}

// Invalidate drops every cached leaderboard key. Called when a freeze or an
// administrative correction changes ranking eligibility mid-TTL.
func (lc *LeaderboardCache) Invalidate(ctx context.Context) error {
	return lc.cache.DeleteByPattern(ctx, PrefixLeaderboard+"*")
}
