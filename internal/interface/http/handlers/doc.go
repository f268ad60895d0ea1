// Package handlers contains HTTP handler interfaces, implementations, and middleware.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Service API-key authentication middleware
//   - Reusable middleware components
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//		// degrade or alert
//	}
//
// # Authentication
//
// Collaborating services authenticate with pre-shared API keys. Only bcrypt
// hashes of the keys are held in memory; the raw key never touches config
// or logs:
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", cfg.APIKeyHashes)
//	mux.Handle("POST /api/v1/points/award", auth.Middleware(awardHandler))
package handlers
