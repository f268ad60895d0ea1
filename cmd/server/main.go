// Package main is the entry point for the scoring engine API server.
//
// The server exposes the REST API consumed by the platform's collaborating
// services: awarding points, processing daily logins, and serving scores,
// achievements, and the leaderboard.
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
	"github.com/learnhub/scoring-engine/internal/application/eventhandler"
	"github.com/learnhub/scoring-engine/internal/application/query"
	"github.com/learnhub/scoring-engine/internal/domain/leaderboard"
	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/internal/infrastructure/messaging"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/redis"
	httpiface "github.com/learnhub/scoring-engine/internal/interface/http"
	"github.com/learnhub/scoring-engine/internal/interface/http/handlers"
	"github.com/learnhub/scoring-engine/pkg/logger"
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
	slogger := setupSlog(cfg)
	log.Info("starting scoring engine API server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

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

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional; everything degrades gracefully without it)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil) {
		leaderboardCache = redis.NewLeaderboardCache(redisCache)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	awarder := postgres.NewTxAwarder(dbConn, ledgerRepo, progressRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBus, err := buildEventBus(cfg, redisCache, slogger)
	if err != nil {
		return fmt.Errorf("failed to build event bus: %w", err)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	awardHandler := command.NewAwardPointsHandler(
		awarder, progressRepo, ledgerRepo, scoring.NewEvaluator(), eventBus)

	var loginHandler *command.ProcessDailyLoginHandler
	if cfg.Features.IsEnabled(config.FeatureDailyLoginBonus, nil) {
		loginHandler = command.NewProcessDailyLoginHandler(
			progressRepo, awardHandler, eventBus, cfg.Scoring.LoginBonusPoints)
	}

	freezeHandler := command.NewFreezeUserHandler(progressRepo, leaderboardCache)

	scoreQuery := query.NewGetUserScoreHandler(progressRepo, ledgerRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, leaderboardCache)
	achievementsQuery := query.NewGetUserAchievementsHandler(progressRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EVENT SUBSCRIBERS
	// ─────────────────────────────────────────────────────────────────────────
	rewardSubscriber := eventhandler.NewOnAchievementUnlockedHandler(
		awardHandler, slogger,
		cfg.Features.IsEnabled(config.FeatureAchievementAutoCredit, nil))
	if err := rewardSubscriber.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register reward subscriber: %w", err)
	}

	// Level-ups reshuffle the ranking, so drop cached leaderboard pages.
	if leaderboardCache != nil {
		if err := eventBus.Subscribe(shared.EventLevelUp, func(event shared.Event) error {
			return leaderboardCache.Invalidate(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to register cache invalidation subscriber: %w", err)
		}
	}

	// Audit trail: every domain event gets one log line.
	if err := eventBus.SubscribeAll(func(event shared.Event) error {
		log.Info("domain event",
			logger.String("event_type", string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
		)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to register logging subscriber: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	server := httpiface.NewServer(httpServerConfig(cfg), httpiface.Dependencies{
		AwardPointsHandler:         awardHandler,
		ProcessDailyLoginHandler:   loginHandler,
		FreezeUserHandler:          freezeHandler,
		GetUserScoreHandler:        scoreQuery,
		GetLeaderboardHandler:      leaderboardQuery,
		GetUserAchievementsHandler: achievementsQuery,
		Logger:                     log,
		HealthChecker:              healthChecker,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// eventBus is the composed bus surface the server wires subscribers into.
type eventBus interface {
	shared.EventBus
	Close() error
}

// buildEventBus assembles the in-memory bus, optionally mirrored over Redis
// Pub/Sub so sibling instances observe each other's events.
func buildEventBus(cfg *config.Config, redisCache *redis.Cache, slogger *slog.Logger) (eventBus, error) {
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = slogger

	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureRedisEventBus, nil) {
		return messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewCachePubSub(redisCache),
			LocalBusConfig: busConfig,
			Logger:         slogger,
		})
	}

	return messaging.NewInMemoryEventBus(busConfig), nil
}

// redisConfig maps application config onto the cache client config.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

// httpServerConfig maps application config onto the HTTP server config.
func httpServerConfig(cfg *config.Config) httpiface.Config {
	hc := httpiface.DefaultConfig()
	hc.Host = cfg.HTTP.Host
	hc.Port = cfg.HTTP.Port
	hc.ReadTimeout = cfg.HTTP.ReadTimeout
	hc.WriteTimeout = cfg.HTTP.WriteTimeout
	hc.IdleTimeout = cfg.HTTP.IdleTimeout
	hc.MaxHeaderBytes = cfg.HTTP.MaxHeaderBytes
	hc.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	hc.EnableCORS = cfg.HTTP.EnableCORS
	hc.AllowedOrigins = cfg.HTTP.AllowedOrigins
	hc.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	hc.APIKeyHeader = cfg.HTTP.APIKeyHeader
	hc.APIKeyHashes = cfg.HTTP.APIKeyHashes
	return hc
}

// setupLogger builds the request-path JSON logger.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.AddCaller = cfg.Observability.LogCaller
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// setupSlog builds the slog logger used by the event bus and subscribers.
func setupSlog(cfg *config.Config) *slog.Logger {
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
