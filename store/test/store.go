package test

import (
	"context"
	"testing"
	"time"

	"github.com/cachewise/cachewise/internal/profile"
	"github.com/cachewise/cachewise/store"
	"github.com/cachewise/cachewise/store/db"
)

// NewTestingStore creates an initialized in-memory store for tests.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	profile := GetTestingProfile(t)
	driver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(driver, profile)
	if err := ts.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		_ = ts.Close()
	})
	return ts
}

// GetTestingProfile returns a profile backed by an in-memory SQLite database
// with a slow janitor so cleanup timing stays under test control.
func GetTestingProfile(t *testing.T) *profile.Profile {
	p := &profile.Profile{
		Mode:            "dev",
		Driver:          "sqlite",
		DSN:             ":memory:",
		DefaultTTL:      300 * time.Second,
		CleanupInterval: time.Hour,
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("failed to validate profile: %v", err)
	}
	return p
}
