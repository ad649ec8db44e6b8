package store

import (
	"context"
	"encoding/json"
	"math"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/cachewise/cachewise/internal/profile"
)

// Store owns persistent cache storage and the background reclamation cycle.
// One instance is constructed at process start and shared by every
// interception point; the storage handle is never accessed directly by
// other components.
type Store struct {
	profile *profile.Profile
	driver  Driver

	initialized    atomic.Bool
	janitorStop    chan struct{}
	janitorStopped chan struct{}
}

// New creates a new instance of Store. The store is unusable until Init
// succeeds.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Init verifies the storage target is reachable, bootstraps the schema and
// starts the reclamation cycle. Failure leaves the store uninitialized.
func (s *Store) Init(ctx context.Context) error {
	if s.initialized.Load() {
		return nil
	}

	if err := s.driver.GetDB().PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to reach cache storage")
	}
	if err := s.driver.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate cache schema")
	}

	s.janitorStop = make(chan struct{})
	s.janitorStopped = make(chan struct{})
	s.initialized.Store(true)
	go s.runJanitor(s.profile.CleanupInterval)

	return nil
}

// Close stops the reclamation cycle and releases storage resources. It is
// safe to call multiple times; subsequent operations return
// ErrNotInitialized.
func (s *Store) Close() error {
	if !s.initialized.CompareAndSwap(true, false) {
		return nil
	}
	close(s.janitorStop)
	<-s.janitorStopped
	return s.driver.Close()
}

// Set stores a value under key with the profile's default TTL.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.SetWithTTL(ctx, key, value, s.profile.DefaultTTL)
}

// SetWithTTL upserts an entry, replacing value and expiry and resetting hit
// accounting for the key.
func (s *Store) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}
	if ttl <= 0 {
		ttl = s.profile.DefaultTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(ErrSerialization, "key %s: %v", key, err)
	}

	now := time.Now().Unix()
	if _, err := s.driver.UpsertEntry(ctx, &Entry{
		Key:        key,
		Value:      string(raw),
		ExpiresAt:  now + int64(ttl/time.Second),
		CreatedAt:  now,
		AccessedAt: now,
		HitCount:   1,
	}); err != nil {
		return errors.Wrapf(err, "failed to upsert cache entry %s", key)
	}
	return nil
}

// Get returns the deserialized value of an active entry. A missing or
// expired key is an absent result, not an error. A successful read
// increments the entry's hit count and refreshes its access timestamp.
func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	if !s.initialized.Load() {
		return nil, false, ErrNotInitialized
	}

	now := time.Now().Unix()
	entry, err := s.driver.GetEntry(ctx, key, now)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get cache entry %s", key)
	}
	if entry == nil {
		return nil, false, nil
	}

	var value any
	if err := json.Unmarshal([]byte(entry.Value), &value); err != nil {
		return nil, false, errors.Wrapf(ErrDeserialization, "key %s: %v", key, err)
	}

	// Hit accounting is best-effort; a failed touch must not hide the value.
	if err := s.driver.TouchEntry(ctx, key, now); err != nil {
		logTouchFailure(key, err)
	}
	return value, true, nil
}

// Has reports whether an active entry exists without mutating access
// statistics.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if !s.initialized.Load() {
		return false, ErrNotInitialized
	}
	ok, err := s.driver.HasEntry(ctx, key, time.Now().Unix())
	if err != nil {
		return false, errors.Wrapf(err, "failed to check cache entry %s", key)
	}
	return ok, nil
}

// Delete removes the entry if present and reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if !s.initialized.Load() {
		return false, ErrNotInitialized
	}
	removed, err := s.driver.DeleteEntry(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete cache entry %s", key)
	}
	return removed, nil
}

// Clear removes all entries, active or expired.
func (s *Store) Clear(ctx context.Context) error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}
	if err := s.driver.ClearEntries(ctx); err != nil {
		return errors.Wrap(err, "failed to clear cache entries")
	}
	return nil
}

// Cleanup removes all entries expired at call time and returns the number
// removed. A no-op cleanup is a valid successful call returning 0.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	if !s.initialized.Load() {
		return 0, ErrNotInitialized
	}
	removed, err := s.driver.DeleteExpiredEntries(ctx, time.Now().Unix())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired cache entries")
	}
	return removed, nil
}

// Stats returns an aggregate snapshot over the full stored set, including
// expired-but-not-yet-reclaimed rows.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	if !s.initialized.Load() {
		return nil, ErrNotInitialized
	}
	stats, err := s.driver.GetEntryStats(ctx, time.Now().Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect cache stats")
	}
	if stats.Total > 0 {
		stats.HitRate = math.Round(float64(stats.TotalHits)/float64(stats.Total)*100) / 100
	}
	return stats, nil
}

// ListEntries returns up to limit active entries, most recently accessed
// first.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]*EntrySnapshot, error) {
	if !s.initialized.Load() {
		return nil, ErrNotInitialized
	}

	find := &FindEntry{ActiveAt: time.Now().Unix()}
	if limit > 0 {
		find.Limit = &limit
	}
	entries, err := s.driver.ListEntries(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cache entries")
	}

	list := make([]*EntrySnapshot, 0, len(entries))
	for _, entry := range entries {
		var value any
		if err := json.Unmarshal([]byte(entry.Value), &value); err != nil {
			return nil, errors.Wrapf(ErrDeserialization, "key %s: %v", entry.Key, err)
		}
		list = append(list, &EntrySnapshot{
			Key:        entry.Key,
			Value:      value,
			ExpiresAt:  time.Unix(entry.ExpiresAt, 0),
			CreatedAt:  time.Unix(entry.CreatedAt, 0),
			AccessedAt: time.Unix(entry.AccessedAt, 0),
			HitCount:   entry.HitCount,
		})
	}
	return list, nil
}
