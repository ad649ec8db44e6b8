package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultEntryListLimit = 50
	maxEntryListLimit     = 200
)

// GetCacheStats returns the aggregate statistics snapshot.
// GET /api/v1/cache/stats
func (s *APIV1Service) GetCacheStats(c echo.Context) error {
	stats, err := s.Store.Stats(c.Request().Context())
	if err != nil {
		slog.Error("failed to collect cache stats", slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to collect cache stats")
	}
	return okResponse(c, http.StatusOK, stats)
}

// ListCacheEntries returns active entries, most recently accessed first.
// GET /api/v1/cache/entries?limit=N
func (s *APIV1Service) ListCacheEntries(c echo.Context) error {
	limit := defaultEntryListLimit
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return errResponse(c, http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}
	if limit > maxEntryListLimit {
		limit = maxEntryListLimit
	}

	entries, err := s.Store.ListEntries(c.Request().Context(), limit)
	if err != nil {
		slog.Error("failed to list cache entries", slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to list cache entries")
	}
	return okResponse(c, http.StatusOK, entries)
}

// GetCacheKey returns the value stored under a single key.
// GET /api/v1/cache/keys/:key
func (s *APIV1Service) GetCacheKey(c echo.Context) error {
	key := c.Param("key")
	value, ok, err := s.Store.Get(c.Request().Context(), key)
	if err != nil {
		slog.Error("failed to get cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to get cache entry")
	}
	if !ok {
		return errResponse(c, http.StatusNotFound, "key not found")
	}
	return okResponse(c, http.StatusOK, map[string]any{"key": key, "value": value})
}

// SetCacheKey stores a JSON value under a single key. The optional ttl query
// parameter is in seconds.
// POST /api/v1/cache/keys/:key
func (s *APIV1Service) SetCacheKey(c echo.Context) error {
	key := c.Param("key")

	var value any
	if err := json.NewDecoder(c.Request().Body).Decode(&value); err != nil {
		return errResponse(c, http.StatusBadRequest, "request body must be valid JSON")
	}

	ttl := s.Profile.DefaultTTL
	if v := c.QueryParam("ttl"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return errResponse(c, http.StatusBadRequest, "invalid ttl")
		}
		ttl = time.Duration(seconds) * time.Second
	}

	if err := s.Store.SetWithTTL(c.Request().Context(), key, value, ttl); err != nil {
		slog.Error("failed to set cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to set cache entry")
	}
	return okResponse(c, http.StatusOK, map[string]any{"key": key, "ttl_seconds": int64(ttl / time.Second)})
}

// DeleteCacheKey removes a single key.
// DELETE /api/v1/cache/keys/:key
func (s *APIV1Service) DeleteCacheKey(c echo.Context) error {
	key := c.Param("key")
	removed, err := s.Store.Delete(c.Request().Context(), key)
	if err != nil {
		slog.Error("failed to delete cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to delete cache entry")
	}
	if !removed {
		return errResponse(c, http.StatusNotFound, "key not found")
	}
	return okResponse(c, http.StatusOK, map[string]any{"key": key, "deleted": true})
}

// ClearCache removes all entries, active or expired.
// POST /api/v1/cache/clear
func (s *APIV1Service) ClearCache(c echo.Context) error {
	if err := s.Store.Clear(c.Request().Context()); err != nil {
		slog.Error("failed to clear cache", slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to clear cache")
	}
	return okResponse(c, http.StatusOK, map[string]any{"cleared": true})
}

// CleanupCache triggers a manual reclamation cycle and returns the number of
// rows removed.
// POST /api/v1/cache/cleanup
func (s *APIV1Service) CleanupCache(c echo.Context) error {
	removed, err := s.Store.Cleanup(c.Request().Context())
	if err != nil {
		slog.Error("failed to run cache cleanup", slog.String("error", err.Error()))
		return errResponse(c, http.StatusInternalServerError, "failed to run cache cleanup")
	}
	return okResponse(c, http.StatusOK, map[string]any{"removed": removed})
}
