// Package main is the entry point for the scoring engine background worker.
//
// The worker runs the periodic jobs that keep the read side honest:
//   - ledger reconciliation: replays completed transactions whose aggregate
//     increments never committed
//   - leaderboard rebuild: materializes a fresh snapshot, stamps rank-change
//     arrows, and warms the Redis cache
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/learnhub/scoring-engine/config"
	"github.com/learnhub/scoring-engine/internal/application/command"
	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
	"github.com/learnhub/scoring-engine/internal/infrastructure/messaging"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/redis"
	"github.com/learnhub/scoring-engine/internal/infrastructure/scheduler"
	"github.com/learnhub/scoring-engine/internal/infrastructure/scheduler/jobs"
	"github.com/learnhub/scoring-engine/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting scoring engine worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled by configuration, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// The worker shares the schema with the server; migrations are
	// idempotent so either process may run them first.
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		rc := redis.DefaultConfig()
		rc.Host = cfg.Redis.Host
		rc.Port = cfg.Redis.Port
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		rc.PoolSize = cfg.Redis.PoolSize
		rc.MinIdleConns = cfg.Redis.MinIdleConns

		redisCache, err = redis.NewCache(rc)
		if err != nil {
			log.Warn("failed to connect to Redis, snapshot caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES AND EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. JOBS
	// ─────────────────────────────────────────────────────────────────────────
	reconcileHandler := command.NewReconcileLedgerHandler(
		ledgerRepo, progressRepo, eventBus,
		retry.New(retry.WithMaxAttempts(3)))

	reconcileConfig := jobs.DefaultReconcileLedgerConfig()
	reconcileConfig.MinAge = cfg.Scheduler.ReconcileMinAge
	reconcileConfig.BatchLimit = cfg.Scheduler.ReconcileBatchLimit
	reconcileConfig.Timeout = cfg.Scheduler.JobTimeout
	reconcileJob := jobs.NewReconcileLedgerJob(reconcileHandler, log, reconcileConfig)

	rebuildConfig := jobs.DefaultRebuildLeaderboardConfig()
	rebuildConfig.Timeout = cfg.Scheduler.JobTimeout
	rebuildJob := jobs.NewRebuildLeaderboardJob(
		leaderboardRepo, leaderboardCache, eventBus, log, rebuildConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	sched := scheduler.NewScheduler(schedConfig)

	if err := sched.Register(reconcileJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReconcileInterval)); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
		return fmt.Errorf("failed to register rebuild job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("scheduler started",
		"reconcile_interval", cfg.Scheduler.ReconcileInterval.String(),
		"rebuild_interval", cfg.Scheduler.RebuildLeaderboardInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop reported error", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger builds the worker's structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
