package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/learnhub/scoring-engine/internal/application/command"
	"github.com/learnhub/scoring-engine/internal/application/query"
	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/domain/shared"
	"github.com/learnhub/scoring-engine/internal/interface/http/handlers"
	"github.com/learnhub/scoring-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	info := map[string]interface{}{
		"name":    "Scoring Engine API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":       "/health",
			"leaderboard":  "/api/v1/leaderboard",
			"score":        "/api/v1/users/{id}/score",
			"achievements": "/api/v1/users/{id}/achievements",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// awardPointsRequest is the request body for POST /api/v1/points/award.
type awardPointsRequest struct {
	UserID        string                 `json:"user_id"`
	Action        string                 `json:"action"`
	Points        int64                  `json:"points"`
	Description   string                 `json:"description,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ReferenceID   string                 `json:"reference_id,omitempty"`
	ReferenceType string                 `json:"reference_type,omitempty"`
	OrderID       string                 `json:"order_id,omitempty"`
	CourseID      string                 `json:"course_id,omitempty"`
	Timestamp     *time.Time             `json:"timestamp,omitempty"`
}

// handleAwardPoints handles POST /api/v1/points/award.
//
// A duplicate reference is not an error: the response carries the current
// totals with the duplicate flag set, so retrying collaborators converge.
func (s *Server) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	if s.deps.AwardPointsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Award handler not configured")
		return
	}

	var req awardPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.AwardPointsCommand{
		UserID:        req.UserID,
		Action:        scoring.Action(req.Action),
		Points:        req.Points,
		Description:   req.Description,
		Metadata:      scoring.DecodeMetadata(req.Metadata),
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		OrderID:       req.OrderID,
		CourseID:      req.CourseID,
		Authenticated: handlers.IsAuthenticated(r.Context()),
		CorrelationID: getRequestID(r.Context()),
	}
	if req.Timestamp != nil {
		cmd.Timestamp = *req.Timestamp
	}

	result, err := s.deps.AwardPointsHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "award points", err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// dailyLoginRequest is the request body for POST /api/v1/users/{id}/login.
type dailyLoginRequest struct {
	Device    string     `json:"device,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// handleDailyLogin handles POST /api/v1/users/{id}/login.
func (s *Server) handleDailyLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.ProcessDailyLoginHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Login handler not configured")
		return
	}

	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	// Body is optional for this endpoint.
	var req dailyLoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	cmd := command.ProcessDailyLoginCommand{
		UserID:        userID,
		Device:        req.Device,
		Authenticated: handlers.IsAuthenticated(r.Context()),
		CorrelationID: getRequestID(r.Context()),
	}
	if req.Timestamp != nil {
		cmd.Timestamp = *req.Timestamp
	}

	result, err := s.deps.ProcessDailyLoginHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, "process daily login", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// freezeRequest is the request body for the freeze/unfreeze endpoints.
type freezeRequest struct {
	Reason string `json:"reason,omitempty"`
}

// handleFreezeUser handles POST /api/v1/users/{id}/freeze.
func (s *Server) handleFreezeUser(w http.ResponseWriter, r *http.Request) {
	s.setFrozen(w, r, true)
}

// handleUnfreezeUser handles POST /api/v1/users/{id}/unfreeze.
func (s *Server) handleUnfreezeUser(w http.ResponseWriter, r *http.Request) {
	s.setFrozen(w, r, false)
}

// setFrozen is the shared implementation of the freeze endpoints.
func (s *Server) setFrozen(w http.ResponseWriter, r *http.Request, frozen bool) {
	if s.deps.FreezeUserHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Freeze handler not configured")
		return
	}

	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	var req freezeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := s.deps.FreezeUserHandler.Handle(r.Context(), command.FreezeUserCommand{
		UserID:        userID,
		Frozen:        frozen,
		Authenticated: handlers.IsAuthenticated(r.Context()),
		Reason:        req.Reason,
	})
	if err != nil {
		s.writeCommandError(w, r, "change freeze state", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"frozen":  frozen,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUserScore handles GET /api/v1/users/{id}/score.
func (s *Server) handleGetUserScore(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetUserScoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Score handler not configured")
		return
	}

	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	q := query.GetUserScoreQuery{
		UserID:       userID,
		HistoryLimit: getQueryParamInt(r, "history_limit", 20),
	}

	result, err := s.deps.GetUserScoreHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeCommandError(w, r, "get user score", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard handles GET /api/v1/leaderboard.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Limit:             getQueryParamInt(r, "limit", 20),
		Offset:            getQueryParamInt(r, "offset", 0),
		Timeframe:         getQueryParam(r, "timeframe", "all_time"),
		IncludeCallerRank: getQueryParamBool(r, "include_caller_rank"),
		CallerID:          getQueryParam(r, "caller_id", ""),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeCommandError(w, r, "get leaderboard", err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
		Limit:      q.Limit,
		Offset:     q.Offset,
		HasMore:    result.HasMore,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetUserAchievements handles GET /api/v1/users/{id}/achievements.
func (s *Server) handleGetUserAchievements(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetUserAchievementsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Achievements handler not configured")
		return
	}

	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	q := query.GetUserAchievementsQuery{
		UserID:        userID,
		Category:      getQueryParam(r, "category", ""),
		IncludeLocked: getQueryParamBool(r, "include_locked"),
	}

	result, err := s.deps.GetUserAchievementsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeCommandError(w, r, "get user achievements", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeCommandError maps domain error kinds onto HTTP status codes. Anything
// unclassified is a 500 with the detail kept out of the response body.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", "Operation not allowed")
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsAlreadyProcessed(err):
		writeJSONError(w, http.StatusConflict, "already_processed", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error("request failed",
			logger.String("operation", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Operation failed")
	}
}
