// Package v1 implements the HTTP API surface of the cachewise server.
package v1

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/cachewise/cachewise/internal/profile"
	"github.com/cachewise/cachewise/server/middleware"
	"github.com/cachewise/cachewise/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	rateLimiter *middleware.RateLimiter
	// searchSemaphore limits concurrent expensive lookups to keep the demo
	// data source from exhausting the process.
	searchSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		Store:           store,
		rateLimiter:     middleware.NewRateLimiter(),
		searchSemaphore: semaphore.NewWeighted(4),
	}
}

// RegisterRoutes registers the management surface and the cached demo data
// endpoints with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1")

	// Management surface for operator use.
	cacheGroup := apiGroup.Group("/cache", s.rateLimiter.Middleware())
	cacheGroup.GET("/stats", s.GetCacheStats)
	cacheGroup.GET("/entries", s.ListCacheEntries)
	cacheGroup.GET("/keys/:key", s.GetCacheKey)
	cacheGroup.POST("/keys/:key", s.SetCacheKey)
	cacheGroup.DELETE("/keys/:key", s.DeleteCacheKey)
	cacheGroup.POST("/clear", s.ClearCache)
	cacheGroup.POST("/cleanup", s.CleanupCache)

	// Demo data endpoints behind the response cache.
	dataGroup := apiGroup.Group("", middleware.ResponseCache(s.Store, middleware.CacheConfig{
		TTL: middleware.DefaultCacheTTL,
	}))
	dataGroup.GET("/products", s.ListProducts)
	dataGroup.GET("/products/:id", s.GetProduct)
	dataGroup.GET("/search", s.Search)
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func okResponse(c echo.Context, status int, data any) error {
	return c.JSON(status, response{Success: true, Data: data})
}

func errResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, response{Success: false, Error: message})
}
