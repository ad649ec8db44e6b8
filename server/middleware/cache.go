// Package middleware provides HTTP middlewares for the cachewise server.
package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cachewise/cachewise/store"
)

const (
	// HeaderCache marks a response as served from cache ("HIT") or freshly
	// produced and captured ("MISS").
	HeaderCache = "X-Cache"
	// HeaderCacheKey carries the resolved cache key of the request.
	HeaderCacheKey = "X-Cache-Key"

	cacheHit  = "HIT"
	cacheMiss = "MISS"
)

// CachedResponse is the serialized form of a captured handler result.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// CacheConfig configures the response cache middleware. The zero value of
// every field has a working default.
type CacheConfig struct {
	// Skipper decides whether a request bypasses the cache entirely.
	// Defaults to never skipping.
	Skipper func(c echo.Context) bool
	// KeyFunc derives the cache key from a request. Defaults to hashing
	// "METHOD:path?query".
	KeyFunc func(c echo.Context) string
	// TTL is the lifetime of entries stored through this middleware.
	// Defaults to 60 seconds.
	TTL time.Duration
	// SkipStore disables capturing successful responses on a miss.
	SkipStore bool
}

// DefaultCacheTTL is deliberately shorter than the engine's own default so
// that response entries turn over faster than operator-managed keys.
const DefaultCacheTTL = 60 * time.Second

func defaultKeyFunc(c echo.Context) string {
	return store.GenerateKey(c.Request().Method + ":" + c.Request().RequestURI)
}

// ResponseCache returns a middleware that serves eligible GET requests from
// the cache store and transparently captures fresh responses on a miss.
// Caching is strictly best-effort: every cache failure is logged and the
// wrapped handler still runs and returns its result unchanged.
func ResponseCache(cacheStore *store.Store, config CacheConfig) echo.MiddlewareFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = defaultKeyFunc
	}
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Only read-only requests that pass the eligibility predicate are
			// candidates; everything else goes straight to the handler.
			if c.Request().Method != http.MethodGet || (config.Skipper != nil && config.Skipper(c)) {
				return next(c)
			}

			key := config.KeyFunc(c)
			if key == "" {
				return next(c)
			}

			if cached, ok := lookup(c, cacheStore, key); ok {
				c.Response().Header().Set(HeaderCache, cacheHit)
				c.Response().Header().Set(HeaderCacheKey, key)
				return c.Blob(cached.Status, cached.ContentType, []byte(cached.Body))
			}

			c.Response().Header().Set(HeaderCache, cacheMiss)
			c.Response().Header().Set(HeaderCacheKey, key)

			if config.SkipStore {
				return next(c)
			}

			capturer := &responseCapturer{ResponseWriter: c.Response().Writer}
			c.Response().Writer = capturer

			if err := next(c); err != nil {
				// Let the registered error handler produce the response; the
				// captured body is not stored.
				return err
			}

			if capturer.status >= http.StatusOK && capturer.status < http.StatusMultipleChoices {
				response := &CachedResponse{
					Status:      capturer.status,
					ContentType: capturer.Header().Get(echo.HeaderContentType),
					Body:        capturer.body.String(),
				}
				if err := cacheStore.SetWithTTL(c.Request().Context(), key, response, config.TTL); err != nil {
					slog.Warn("failed to store cached response", slog.String("key", key), slog.String("error", err.Error()))
				}
			}
			return nil
		}
	}
}

// lookup queries the store for a previously captured response. Failures are
// reported and treated as a miss.
func lookup(c echo.Context, cacheStore *store.Store, key string) (*CachedResponse, bool) {
	value, ok, err := cacheStore.Get(c.Request().Context(), key)
	if err != nil {
		slog.Warn("cache lookup failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	// The engine stores opaque JSON; re-encode the generic value into the
	// response shape.
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	var cached CachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil || cached.Status == 0 {
		slog.Warn("cached response has unexpected shape", slog.String("key", key))
		return nil, false
	}
	return &cached, true
}

// responseCapturer duplicates everything written to the underlying writer so
// the terminal result of the handler can be observed exactly once, no matter
// which write path produced it.
type responseCapturer struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
	armed  bool
}

func (w *responseCapturer) WriteHeader(status int) {
	if !w.armed {
		w.armed = true
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseCapturer) Write(b []byte) (int, error) {
	if !w.armed {
		// Implicit 200 on first write, mirroring net/http.
		w.armed = true
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseCapturer) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
