package memory

import (
	"context"

	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepo is an in-memory leaderboard.Repository ranking directly
// over the in-memory progress store.
type LeaderboardRepo struct {
	progress *ProgressStore
}

// NewLeaderboardRepo creates a leaderboard view over the progress store.
func NewLeaderboardRepo(progress *ProgressStore) *LeaderboardRepo {
	return &LeaderboardRepo{progress: progress}
}

// BuildRanking implements leaderboard.Repository.
func (r *LeaderboardRepo) BuildRanking(_ context.Context) (*leaderboard.Ranking, error) {
	ranking := leaderboard.NewRanking()
	for _, p := range r.progress.All() {
		if !p.RankEligible() {
			continue
		}
		entry := &leaderboard.Entry{
			UserID:              p.UserID.String(),
			TotalLifetimePoints: p.TotalLifetimePoints,
			Level:               p.Level,
			CurrentPoints:       p.CurrentPoints,
			AchievementCount:    p.AchievementCount,
			UpdatedAt:           p.UpdatedAt,
		}
		if err := ranking.Add(entry); err != nil {
			return nil, err
		}
	}
	ranking.Sort()
	return ranking, nil
}

// GetPage implements leaderboard.Repository.
func (r *LeaderboardRepo) GetPage(ctx context.Context, limit, offset int) ([]*leaderboard.Entry, int64, error) {
	ranking, err := r.BuildRanking(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ranking.Slice(offset, offset+limit), int64(ranking.Count()), nil
}

// GetUserRank implements leaderboard.Repository.
func (r *LeaderboardRepo) GetUserRank(ctx context.Context, userID string) (*leaderboard.Entry, error) {
	ranking, err := r.BuildRanking(ctx)
	if err != nil {
		return nil, err
	}
	entry := ranking.GetByID(userID)
	if entry == nil {
		return nil, shared.ErrRankNotFound
	}
	return entry.Clone(), nil
}

// GetTotalCount implements leaderboard.Repository.
func (r *LeaderboardRepo) GetTotalCount(ctx context.Context) (int64, error) {
	ranking, err := r.BuildRanking(ctx)
	if err != nil {
		return 0, err
	}
	return int64(ranking.Count()), nil
}
