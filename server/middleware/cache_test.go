package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	storetest "github.com/cachewise/cachewise/store/test"
)

func newCachedEcho(t *testing.T, config CacheConfig) (*echo.Echo, *int) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	invocations := 0
	e := echo.New()
	e.Use(ResponseCache(ts, config))
	e.GET("/expensive", func(c echo.Context) error {
		invocations++
		return c.JSON(http.StatusOK, map[string]any{"result": 42})
	})
	e.GET("/broken", func(c echo.Context) error {
		invocations++
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})
	e.POST("/expensive", func(c echo.Context) error {
		invocations++
		return c.JSON(http.StatusOK, map[string]any{"created": true})
	})
	return e, &invocations
}

func doRequest(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestResponseCacheMissThenHit(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{})

	first := doRequest(e, http.MethodGet, "/expensive")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "MISS", first.Header().Get(HeaderCache))
	require.NotEmpty(t, first.Header().Get(HeaderCacheKey))
	require.Equal(t, 1, *invocations)

	second := doRequest(e, http.MethodGet, "/expensive")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "HIT", second.Header().Get(HeaderCache))
	require.Equal(t, first.Header().Get(HeaderCacheKey), second.Header().Get(HeaderCacheKey))
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	// The wrapped handler is never invoked on a hit.
	require.Equal(t, 1, *invocations)
}

func TestResponseCacheDistinctKeysPerPath(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{})

	doRequest(e, http.MethodGet, "/expensive")
	doRequest(e, http.MethodGet, "/expensive?page=2")
	require.Equal(t, 2, *invocations)
}

func TestResponseCacheSkipperBypassesEngine(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{
		Skipper: func(echo.Context) bool { return true },
	})

	for i := 0; i < 3; i++ {
		rec := doRequest(e, http.MethodGet, "/expensive")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get(HeaderCache))
	}
	require.Equal(t, 3, *invocations)
}

func TestResponseCacheIgnoresWrites(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{})

	for i := 0; i < 2; i++ {
		rec := doRequest(e, http.MethodPost, "/expensive")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get(HeaderCache))
	}
	require.Equal(t, 2, *invocations)
}

func TestResponseCacheFailureNotStored(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{})

	first := doRequest(e, http.MethodGet, "/broken")
	require.Equal(t, http.StatusInternalServerError, first.Code)

	second := doRequest(e, http.MethodGet, "/broken")
	require.Equal(t, http.StatusInternalServerError, second.Code)
	require.Equal(t, "MISS", second.Header().Get(HeaderCache))
	require.Equal(t, 2, *invocations)
}

func TestResponseCacheSkipStore(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{SkipStore: true})

	doRequest(e, http.MethodGet, "/expensive")
	rec := doRequest(e, http.MethodGet, "/expensive")
	require.Equal(t, "MISS", rec.Header().Get(HeaderCache))
	require.Equal(t, 2, *invocations)
}

func TestResponseCacheCustomKeyFunc(t *testing.T) {
	e, invocations := newCachedEcho(t, CacheConfig{
		KeyFunc: func(c echo.Context) string { return "fixed-key" },
	})

	doRequest(e, http.MethodGet, "/expensive")
	rec := doRequest(e, http.MethodGet, "/expensive?totally=different")
	require.Equal(t, "HIT", rec.Header().Get(HeaderCache))
	require.Equal(t, "fixed-key", rec.Header().Get(HeaderCacheKey))
	require.Equal(t, 1, *invocations)
}
