package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob materializes a fresh leaderboard snapshot, diffs it
// against the previous one to stamp rank-change arrows, and warms the cache
// with the top pages. Request paths never wait on this job: they rank off
// the live table and only consult the snapshot for rank-change display.
type RebuildLeaderboardJob struct {
	repo           leaderboard.Repository
	cache          leaderboard.Cache
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	config         RebuildLeaderboardConfig

	lastStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// SnapshotTTL is how long the rebuilt snapshot stays cached.
	SnapshotTTL time.Duration

	// PageTTL is the TTL for the warmed top pages.
	PageTTL time.Duration

	// WarmPageSize is the page size used when warming the cache.
	WarmPageSize int

	// WarmPageCount is how many leading pages to warm.
	WarmPageCount int

	// Timeout is the maximum duration for one rebuild.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		SnapshotTTL:   30 * time.Minute,
		PageTTL:       30 * time.Second,
		WarmPageSize:  20,
		WarmPageCount: 5,
		Timeout:       5 * time.Minute,
	}
}

// RebuildStats contains statistics from one rebuild run.
type RebuildStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	TotalUsers       int
	RankChangesFound int
	PagesWarmed      int
}

// NewRebuildLeaderboardJob creates a new rebuild job.
func NewRebuildLeaderboardJob(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildLeaderboardJob{
		repo:           repo,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the leaderboard snapshot, stamps rank changes, and warms the cache"
}

// Run executes one rebuild.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now().UTC()
	stats := &RebuildStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	ranking, err := j.repo.BuildRanking(ctx)
	if err != nil {
		return fmt.Errorf("failed to build ranking: %w", err)
	}
	stats.TotalUsers = ranking.Count()

	current := leaderboard.NewSnapshot(uuid.NewString(), ranking, startedAt)

	// Diff against the previous snapshot for rank-change arrows. A cache
	// miss or error just means no arrows this round.
	var previous *leaderboard.Snapshot
	if j.cache != nil {
		previous, _ = j.cache.GetSnapshot(ctx)
	}
	leaderboard.ApplyRankChanges(previous, current)
	for _, entry := range current.Entries {
		if entry.RankChange != 0 {
			stats.RankChangesFound++
		}
	}

	if j.cache != nil {
		if err := j.cache.SetSnapshot(ctx, current, j.config.SnapshotTTL); err != nil {
			j.logger.Warn("failed to cache snapshot", "error", err)
		}
		j.warmPages(ctx, current, stats)
	}

	stats.CompletedAt = time.Now().UTC()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	if j.eventPublisher != nil {
		_ = j.eventPublisher.Publish(rebuiltEvent{
			BaseEvent:   shared.NewBaseEvent(shared.EventLeaderboardRebuilt, current.ID),
			snapshotID:  current.ID,
			totalUsers:  current.TotalUsers,
			totalPoints: current.TotalPoints,
		})
	}

	j.logger.Info("leaderboard rebuilt",
		"snapshot_id", current.ID,
		"users", stats.TotalUsers,
		"rank_changes", stats.RankChangesFound,
		"duration", stats.Duration.String(),
	)

	return nil
}

// warmPages pre-populates the cache with the leading pages of the ranking.
func (j *RebuildLeaderboardJob) warmPages(ctx context.Context, snapshot *leaderboard.Snapshot, stats *RebuildStats) {
	size := j.config.WarmPageSize
	if size <= 0 {
		return
	}

	total := int64(snapshot.Count())
	for page := 0; page < j.config.WarmPageCount; page++ {
		offset := page * size
		entries := snapshot.Page(size, offset)
		if len(entries) == 0 {
			break
		}

		if err := j.cache.SetPage(ctx, size, offset, entries, total, j.config.PageTTL); err != nil {
			j.logger.Warn("failed to warm leaderboard page",
				"offset", offset,
				"error", err,
			)
			continue
		}
		stats.PagesWarmed++
	}
}

// LastStats returns statistics from the last rebuild, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}

// rebuiltEvent notifies subscribers that a new snapshot is available.
type rebuiltEvent struct {
	shared.BaseEvent
	snapshotID  string
	totalUsers  int
	totalPoints int64
}

func (e rebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"snapshot_id":  e.snapshotID,
		"total_users":  e.totalUsers,
		"total_points": e.totalPoints,
	}
}
