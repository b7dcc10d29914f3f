package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habits/internal/core"
	"habits/internal/memorystore"
	"habits/internal/services"
	"habits/internal/store"
)

const testToken = "test-token"

func newTestServer(t *testing.T) (*Server, *memorystore.Store) {
	t.Helper()
	st := memorystore.New()
	return NewServer(":0", testToken, nil, services.NewHabitService(st, nil), services.NewPlanService(st)), st
}

func doJSON(t *testing.T, s *Server, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("X-API-Token", token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAPIRejectsMissingToken(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/action-templates", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.OK)
	assert.NotEmpty(t, env.Error)
}

func TestAPIRejectsWrongToken(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/action-templates", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRejectsAllWhenServerTokenEmpty(t *testing.T) {
	st := memorystore.New()
	s := NewServer(":0", "", nil, services.NewHabitService(st, nil), services.NewPlanService(st))

	rec := doJSON(t, s, http.MethodGet, "/api/action-templates", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpointsNeedNoToken(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestTemplateLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/action-templates", map[string]any{
		"name":       "Morning run",
		"category":   "exercise",
		"start_time": "07:00",
	}, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.OK)

	created := env.Data.(map[string]any)
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "10:00", created["end_time"])

	rec = doJSON(t, s, http.MethodGet, "/api/action-templates", nil, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.Len(t, env.Data.([]any), 1)

	rec = doJSON(t, s, http.MethodDelete, "/api/action-templates", map[string]any{"id": id}, testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/action-templates", nil, testToken)
	env = decodeEnvelope(t, rec)
	assert.Empty(t, env.Data.([]any))
}

func TestUpsertTemplateRejectsEmptyName(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/action-templates", map[string]any{
		"name": "   ",
	}, testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.OK)
}

func TestUpsertTemplateRejectsMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/action-templates", bytes.NewBufferString("{not json"))
	req.Header.Set("X-API-Token", testToken)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompletionToggleIsIdempotent(t *testing.T) {
	s, _ := newTestServer(t)

	body := map[string]any{"actionId": "a1", "dateKey": "2024-01-02"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/action-logs", body, testToken)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/action-logs?dateKey=2024-01-02", nil, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Len(t, env.Data.([]any), 1)

	rec = doJSON(t, s, http.MethodDelete, "/api/action-logs", body, testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/action-logs?dateKey=2024-01-02", nil, testToken)
	env = decodeEnvelope(t, rec)
	assert.Empty(t, env.Data.([]any))
}

func TestListCompletionsRequiresDate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/action-logs", nil, testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/action-logs?dateKey=nonsense", nil, testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeekStatsShape(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/action-templates", map[string]any{
		"name":     "Run",
		"category": "exercise",
	}, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeEnvelope(t, rec).Data.(map[string]any)["id"].(string)

	rec = doJSON(t, s, http.MethodPost, "/api/action-logs",
		map[string]any{"actionId": id, "dateKey": "2024-01-02"}, testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/week-stats?dateKey=2024-01-04", nil, testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp weekStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "2024-01-01", resp.WeekStart)
	assert.Equal(t, "2024-01-07", resp.WeekEnd)
	require.Len(t, resp.Data, len(core.Categories))
	assert.Equal(t, core.CategoryTally{Days: 1, Total: core.WeekDays}, resp.Data[core.CategoryExercise])
	assert.Equal(t, core.CategoryTally{Days: 0, Total: core.WeekDays}, resp.Data[core.CategoryStudy])
}

func TestPlanFlow(t *testing.T) {
	s, _ := newTestServer(t)

	// No plan yet: ok with null data.
	rec := doJSON(t, s, http.MethodGet, "/api/plan?dateKey=2024-01-02", nil, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.OK)
	assert.Nil(t, env.Data)

	rec = doJSON(t, s, http.MethodPost, "/api/action-templates", map[string]any{
		"name":       "Run",
		"start_time": "07:00",
	}, testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/plan/draft?dateKey=2024-01-02", nil, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "draft", draft["status"])
	items := draft["plan"].([]any)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	item["done"] = true
	rec = doJSON(t, s, http.MethodPut, "/api/plan", map[string]any{
		"dateKey": "2024-01-02",
		"status":  "confirmed",
		"plan":    []any{item},
	}, testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/plan?dateKey=2024-01-02", nil, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "confirmed", got["status"])
	assert.Equal(t, true, got["plan"].([]any)[0].(map[string]any)["done"])
}

func TestDraftDefaultDayFollowsConfiguredTimezone(t *testing.T) {
	// Kiritimati (UTC+14) and the UTC-12 zone never share a civil date, so
	// the default day must track whichever zone the server was given.
	east, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)
	west, err := time.LoadLocation("Etc/GMT+12")
	require.NoError(t, err)

	keys := make(map[string]string, 2)
	for name, loc := range map[string]*time.Location{"east": east, "west": west} {
		st := memorystore.New()
		s := NewServer(":0", testToken, loc, services.NewHabitService(st, nil), services.NewPlanService(st))

		rec := doJSON(t, s, http.MethodPost, "/api/plan/draft", nil, testToken)
		require.Equal(t, http.StatusOK, rec.Code)
		draft := decodeEnvelope(t, rec).Data.(map[string]any)
		assert.Equal(t, core.CurrentDateKey(loc), draft["dateKey"], name)
		keys[name] = draft["dateKey"].(string)
	}
	assert.NotEqual(t, keys["east"], keys["west"])
}

func TestPutPlanRejectsBadStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/plan", map[string]any{
		"dateKey": "2024-01-02",
		"status":  "done",
	}, testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// failingStore wraps the memory store, failing template listing, to show
// that backend trouble surfaces as 500 rather than bad-request noise.
type failingStore struct {
	store.Store
}

func (f failingStore) ListTemplates(ctx context.Context) ([]core.ActionTemplate, error) {
	return nil, errors.New("backend unavailable")
}

func TestStoreFailureIsServerError(t *testing.T) {
	st := failingStore{Store: memorystore.New()}
	s := NewServer(":0", testToken, nil, services.NewHabitService(st, nil), services.NewPlanService(st))

	rec := doJSON(t, s, http.MethodGet, "/api/action-templates", nil, testToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.OK)

	// Stats need the template list too, same failure mode.
	rec = doJSON(t, s, http.MethodGet, "/api/week-stats?dateKey=2024-01-04", nil, testToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
