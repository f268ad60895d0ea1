package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository by ranking
// directly off the user_progress table. There is no separate projection
// table: the composite rank index keeps page and rank queries cheap, and
// reading the source of truth means the leaderboard can never drift from
// the aggregates.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// rankEligible filters to users that appear on the leaderboard. Must match
// the predicate of the partial rank index.
const rankEligible = "is_frozen = FALSE AND status = 'active'"

// rankOrder is the SQL mirror of Entry.OutranksFields.
const rankOrder = "total_lifetime_points DESC, level DESC, current_points DESC, user_id ASC"

// GetPage returns one page of the ranking plus the total ranked-user count.
func (r *LeaderboardRepository) GetPage(ctx context.Context, limit, offset int) ([]*leaderboard.Entry, int64, error) {
	query := `
		SELECT ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rank,
		       user_id, total_lifetime_points, level, current_points,
		       cardinality(achievements) AS achievement_count, updated_at
		FROM user_progress
		WHERE ` + rankEligible + `
		ORDER BY ` + rankOrder + `
		LIMIT $1 OFFSET $2
	`

	rows, err := r.conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard page: %w", err)
	}
	defer rows.Close()

	entries, err := r.scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.GetTotalCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetUserRank returns the user's entry with its 1-based rank. The rank is
// one plus the count of users the ordering tuple places ahead, which is
// exactly the comparison Entry.OutranksFields performs in memory.
func (r *LeaderboardRepository) GetUserRank(ctx context.Context, userID string) (*leaderboard.Entry, error) {
	query := `
		SELECT (
			SELECT COUNT(*) + 1
			FROM user_progress ahead
			WHERE ` + eligiblePrefixed("ahead") + `
			  AND (
				ahead.total_lifetime_points > me.total_lifetime_points
				OR (ahead.total_lifetime_points = me.total_lifetime_points AND ahead.level > me.level)
				OR (ahead.total_lifetime_points = me.total_lifetime_points AND ahead.level = me.level
				    AND ahead.current_points > me.current_points)
				OR (ahead.total_lifetime_points = me.total_lifetime_points AND ahead.level = me.level
				    AND ahead.current_points = me.current_points AND ahead.user_id < me.user_id)
			  )
		) AS rank,
		       me.user_id, me.total_lifetime_points, me.level, me.current_points,
		       cardinality(me.achievements) AS achievement_count, me.updated_at
		FROM user_progress me
		WHERE me.user_id = $1 AND me.` + rankEligible

	entry, err := r.scanEntry(r.conn.QueryRow(ctx, query, userID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRankNotFound
		}
		return nil, fmt.Errorf("failed to query user rank: %w", err)
	}
	return entry, nil
}

// GetTotalCount returns the number of ranked users.
func (r *LeaderboardRepository) GetTotalCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_progress WHERE "+rankEligible,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ranked users: %w", err)
	}
	return count, nil
}

// BuildRanking loads every eligible user into a sorted Ranking. Used by the
// snapshot rebuild job, not by request paths.
func (r *LeaderboardRepository) BuildRanking(ctx context.Context) (*leaderboard.Ranking, error) {
	query := `
		SELECT ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rank,
		       user_id, total_lifetime_points, level, current_points,
		       cardinality(achievements) AS achievement_count, updated_at
		FROM user_progress
		WHERE ` + rankEligible + `
		ORDER BY ` + rankOrder

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query full ranking: %w", err)
	}
	defer rows.Close()

	entries, err := r.scanEntries(rows)
	if err != nil {
		return nil, err
	}

	ranking := leaderboard.NewRanking()
	for _, entry := range entries {
		if err := ranking.Add(entry); err != nil {
			return nil, fmt.Errorf("failed to build ranking: %w", err)
		}
	}
	ranking.Sort()

	return ranking, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *LeaderboardRepository) scanEntry(row pgx.Row) (*leaderboard.Entry, error) {
	var (
		entry leaderboard.Entry
		rank  int64
	)

	err := row.Scan(
		&rank,
		&entry.UserID,
		&entry.TotalLifetimePoints,
		&entry.Level,
		&entry.CurrentPoints,
		&entry.AchievementCount,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Rank = leaderboard.Rank(rank)
	return &entry, nil
}

func (r *LeaderboardRepository) scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	entries := make([]*leaderboard.Entry, 0)
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func eligiblePrefixed(alias string) string {
	return alias + ".is_frozen = FALSE AND " + alias + ".status = 'active'"
}
