package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	storetest "github.com/cachewise/cachewise/store/test"
)

func newTestService(t *testing.T) (*echo.Echo, *APIV1Service) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	service := NewAPIV1Service(storetest.GetTestingProfile(t), ts)

	e := echo.New()
	service.RegisterRoutes(e)
	return e, service
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestCacheKeyLifecycle(t *testing.T) {
	e, _ := newTestService(t)

	rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/greeting?ttl=120", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, payload["success"])

	rec, payload = doJSON(t, e, http.MethodGet, "/api/v1/cache/keys/greeting", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	require.Equal(t, "greeting", data["key"])
	require.Equal(t, map[string]any{"message": "hello"}, data["value"])

	rec, payload = doJSON(t, e, http.MethodDelete, "/api/v1/cache/keys/greeting", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = doJSON(t, e, http.MethodGet, "/api/v1/cache/keys/greeting", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, false, payload["success"])
	require.Equal(t, "key not found", payload["error"])
}

func TestSetCacheKeyRejectsInvalidInput(t *testing.T) {
	e, _ := newTestService(t)

	rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/bad", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/bad?ttl=-5", `"v"`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMissingKey(t *testing.T) {
	e, _ := newTestService(t)

	rec, payload := doJSON(t, e, http.MethodDelete, "/api/v1/cache/keys/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, false, payload["success"])
}

func TestCacheStatsAndClear(t *testing.T) {
	e, _ := newTestService(t)

	doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/a", `1`)
	doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/b", `2`)

	rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := payload["data"].(map[string]any)
	require.Equal(t, float64(2), stats["total"])
	require.Equal(t, stats["total"], stats["active"].(float64)+stats["expired"].(float64))

	rec, _ = doJSON(t, e, http.MethodPost, "/api/v1/cache/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, payload = doJSON(t, e, http.MethodGet, "/api/v1/cache/stats", "")
	stats = payload["data"].(map[string]any)
	require.Equal(t, float64(0), stats["total"])
}

func TestListCacheEntries(t *testing.T) {
	e, _ := newTestService(t)

	doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/first", `"1"`)
	doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/second", `"2"`)

	rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/cache/entries?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := payload["data"].([]any)
	require.Len(t, entries, 1)

	rec, _ = doJSON(t, e, http.MethodGet, "/api/v1/cache/entries?limit=0", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualCleanup(t *testing.T) {
	e, _ := newTestService(t)

	doJSON(t, e, http.MethodPost, "/api/v1/cache/keys/transient?ttl=1", `"x"`)
	time.Sleep(2100 * time.Millisecond)

	rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/cache/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	require.Equal(t, float64(1), data["removed"])

	_, payload = doJSON(t, e, http.MethodPost, "/api/v1/cache/cleanup", "")
	data = payload["data"].(map[string]any)
	require.Equal(t, float64(0), data["removed"])
}

func TestCachedDataEndpoint(t *testing.T) {
	e, _ := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/3", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/v1/products/3", nil))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
	require.Equal(t, rec.Body.String(), rec2.Body.String())
}
