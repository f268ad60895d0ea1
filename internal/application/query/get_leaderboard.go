package query

import (
	"context"
	"time"

	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns one page of the all-time ranking. Frozen and non-active users are
// excluded by the repository; results tolerate eventual consistency.
// ══════════════════════════════════════════════════════════════════════════════

// leaderboardCacheTTL bounds how stale a cached page may be.
const leaderboardCacheTTL = 30 * time.Second

// GetLeaderboardQuery contains the query parameters.
type GetLeaderboardQuery struct {
	// Limit is the page size (default 20, max 100).
	Limit int

	// Offset is the pagination offset.
	Offset int

	// Timeframe selects the ranking window; only all_time is supported and
	// unknown values are rejected rather than silently ignored.
	Timeframe string

	// IncludeCallerRank requests the caller's own rank alongside the page.
	IncludeCallerRank bool

	// CallerID identifies the caller for IncludeCallerRank.
	CallerID string
}

// Validate validates and normalizes the query.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return shared.ErrInvalidPagination
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if !leaderboard.Timeframe(q.Timeframe).IsValid() {
		return shared.ErrUnsupportedTimeframe
	}
	if q.IncludeCallerRank && q.CallerID == "" {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput,
			"caller id is required when include_caller_rank is set")
	}
	return nil
}

// LeaderboardEntryDTO is one row of the response.
type LeaderboardEntryDTO struct {
	Rank                int    `json:"rank"`
	UserID              string `json:"user_id"`
	TotalLifetimePoints int64  `json:"total_lifetime_points"`
	Level               int    `json:"level"`
	CurrentPoints       int64  `json:"current_points"`
	AchievementCount    int    `json:"achievement_count"`
	RankChange          int    `json:"rank_change"`
}

// CallerRankDTO is the caller's own position.
type CallerRankDTO struct {
	Rank                int     `json:"rank"`
	TotalLifetimePoints int64   `json:"total_lifetime_points"`
	Level               int     `json:"level"`
	Percentile          float64 `json:"percentile"`
}

// GetLeaderboardResult is the query response.
type GetLeaderboardResult struct {
	Entries     []LeaderboardEntryDTO `json:"entries"`
	TotalCount  int64                 `json:"total_count"`
	CallerRank  *CallerRankDTO        `json:"caller_rank,omitempty"`
	HasMore     bool                  `json:"has_more"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. cache may
// be nil to read straight from the repository.
func NewGetLeaderboardHandler(repo leaderboard.Repository, cache leaderboard.Cache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{repo: repo, cache: cache}
}

// Handle executes the query. Cache failures degrade to repository reads.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	entries, total, err := h.loadPage(ctx, query.Limit, query.Offset)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrStorageFailure, "failed to load ranking", err)
	}

	result := &GetLeaderboardResult{
		Entries:     make([]LeaderboardEntryDTO, 0, len(entries)),
		TotalCount:  total,
		HasMore:     int64(query.Offset+len(entries)) < total,
		GeneratedAt: time.Now().UTC(),
	}

	for _, e := range entries {
		result.Entries = append(result.Entries, LeaderboardEntryDTO{
			Rank:                int(e.Rank),
			UserID:              e.UserID,
			TotalLifetimePoints: e.TotalLifetimePoints,
			Level:               e.Level,
			CurrentPoints:       e.CurrentPoints,
			AchievementCount:    e.AchievementCount,
			RankChange:          int(e.RankChange),
		})
	}

	if query.IncludeCallerRank {
		result.CallerRank = h.loadCallerRank(ctx, query.CallerID, total)
	}

	return result, nil
}

// loadPage tries the cache first and falls back to the repository,
// repopulating the cache on a miss.
func (h *GetLeaderboardHandler) loadPage(ctx context.Context, limit, offset int) ([]*leaderboard.Entry, int64, error) {
	if h.cache != nil {
		entries, total, err := h.cache.GetPage(ctx, limit, offset)
		if err == nil && entries != nil {
			return entries, total, nil
		}
	}

	entries, total, err := h.repo.GetPage(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if h.cache != nil {
		_ = h.cache.SetPage(ctx, limit, offset, entries, total, leaderboardCacheTTL)
	}

	return entries, total, nil
}

// loadCallerRank resolves the caller's own position. An unranked caller
// (frozen, non-active, or never awarded) yields nil rather than an error so
// the page itself still renders.
func (h *GetLeaderboardHandler) loadCallerRank(ctx context.Context, callerID string, total int64) *CallerRankDTO {
	var entry *leaderboard.Entry
	if h.cache != nil {
		if cached, err := h.cache.GetUserRank(ctx, callerID); err == nil && cached != nil {
			entry = cached
		}
	}

	if entry == nil {
		loaded, err := h.repo.GetUserRank(ctx, callerID)
		if err != nil {
			return nil
		}
		entry = loaded
		if h.cache != nil {
			_ = h.cache.SetUserRank(ctx, entry, leaderboardCacheTTL)
		}
	}

	dto := &CallerRankDTO{
		Rank:                int(entry.Rank),
		TotalLifetimePoints: entry.TotalLifetimePoints,
		Level:               entry.Level,
	}
	if total > 0 {
		dto.Percentile = float64(total-int64(entry.Rank)) / float64(total) * 100
	}
	return dto
}
