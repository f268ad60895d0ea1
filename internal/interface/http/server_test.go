package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/scoring-engine/internal/application/command"
	"github.com/learnhub/scoring-engine/internal/application/query"
	"github.com/learnhub/scoring-engine/internal/domain/scoring"
	"github.com/learnhub/scoring-engine/internal/infrastructure/persistence/memory"
)

const testAPIKey = "svc-orders-test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	ledger := memory.NewLedger()
	progress := memory.NewProgressStore()
	awarder := memory.NewAwarder(ledger, progress)

	awardHandler := command.NewAwardPointsHandler(awarder, progress, ledger, scoring.NewEvaluator(), nil)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	require.NoError(t, err)

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.APIKeyHashes = []string{string(hash)}

	return NewServer(config, Dependencies{
		AwardPointsHandler:         awardHandler,
		ProcessDailyLoginHandler:   command.NewProcessDailyLoginHandler(progress, awardHandler, nil, 0),
		FreezeUserHandler:          command.NewFreezeUserHandler(progress, nil),
		GetUserScoreHandler:        query.NewGetUserScoreHandler(progress, ledger),
		GetLeaderboardHandler:      query.NewGetLeaderboardHandler(memory.NewLeaderboardRepo(progress), nil),
		GetUserAchievementsHandler: query.NewGetUserAchievementsHandler(progress),
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if authenticated {
		req.Header.Set("X-API-Key", testAPIKey)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_AwardPoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
		UserID: "user-1",
		Action: "course_complete",
		Points: 100,
	}, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(100), data["points_awarded"])
	assert.Equal(t, false, data["duplicate"])
}

func TestServer_AwardPoints_DuplicateReturns200(t *testing.T) {
	s := newTestServer(t)

	body := awardPointsRequest{
		UserID:        "user-1",
		Action:        "purchase",
		Points:        50,
		ReferenceID:   "order-42",
		ReferenceType: "order",
	}

	first := doRequest(t, s, http.MethodPost, "/api/v1/points/award", body, true)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(t, s, http.MethodPost, "/api/v1/points/award", body, true)
	require.Equal(t, http.StatusOK, second.Code)

	data := decodeResponse(t, second).Data.(map[string]interface{})
	assert.Equal(t, true, data["duplicate"])
	assert.Equal(t, float64(0), data["points_awarded"])
	assert.Equal(t, float64(50), data["new_total_points"])
}

func TestServer_AwardPoints_RequiresAPIKey(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
		UserID: "user-1",
		Action: "purchase",
		Points: 50,
	}, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_AwardPoints_WrongKeyRejected(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/points/award", bytes.NewBufferString(`{}`))
	req.Header.Set("X-API-Key", "not-the-key")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_AwardPoints_ValidationError(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
		UserID: "user-1",
		Action: "not_an_action",
		Points: 10,
	}, true)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "validation_error", resp.Error.Code)
}

func TestServer_DailyLogin(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/users/user-1/login", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["new_streak"])
	assert.Equal(t, float64(5), data["points_awarded"])
}

func TestServer_DailyLogin_SecondCallConflicts(t *testing.T) {
	s := newTestServer(t)

	first := doRequest(t, s, http.MethodPost, "/api/v1/users/user-1/login", nil, true)
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, s, http.MethodPost, "/api/v1/users/user-1/login", nil, true)
	require.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "already_processed", decodeResponse(t, second).Error.Code)
}

func TestServer_GetUserScore(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
		UserID: "user-1",
		Action: "course_complete",
		Points: 600,
	}, true)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/users/user-1/score", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, float64(600), data["total_lifetime_points"])
	assert.Equal(t, float64(2), data["level"])
	assert.Len(t, data["history"], 1)
}

func TestServer_GetUserScore_UnknownUserGetsZeroSnapshot(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/users/ghost/score", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["total_lifetime_points"])
	assert.Equal(t, float64(1), data["level"])
}

func TestServer_GetLeaderboard(t *testing.T) {
	s := newTestServer(t)

	for i, points := range []int64{300, 100, 200} {
		doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
			UserID: string(rune('a' + i)),
			Action: "review_write",
			Points: points,
		}, true)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/leaderboard?limit=2", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	entries := data["entries"].([]interface{})
	require.Len(t, entries, 2)

	top := entries[0].(map[string]interface{})
	assert.Equal(t, "a", top["user_id"])
	assert.Equal(t, float64(1), top["rank"])
	assert.Equal(t, int64(3), resp.Meta.TotalCount)
	assert.True(t, resp.Meta.HasMore)
}

func TestServer_GetLeaderboard_BadTimeframe(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/leaderboard?timeframe=weekly", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetUserAchievements(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
		UserID: "user-1",
		Action: "course_complete",
		Points: 100,
	}, true)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/users/user-1/achievements?include_locked=true", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	earned := data["earned"].([]interface{})
	require.NotEmpty(t, earned)
	assert.NotEmpty(t, data["locked"])
}

func TestServer_FreezeHidesUserFromLeaderboard(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/v1/points/award", awardPointsRequest{
		UserID: "user-1",
		Action: "review_write",
		Points: 100,
	}, true)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/users/user-1/freeze", freezeRequest{Reason: "abuse review"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := doRequest(t, s, http.MethodGet, "/api/v1/leaderboard", nil, false)
	data := decodeResponse(t, board).Data.(map[string]interface{})
	assert.Empty(t, data["entries"])
}

func TestServer_HealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequestIDPropagated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
