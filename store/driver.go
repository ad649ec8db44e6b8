package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// Entry model related methods.
	UpsertEntry(ctx context.Context, upsert *Entry) (*Entry, error)
	GetEntry(ctx context.Context, key string, now int64) (*Entry, error)
	TouchEntry(ctx context.Context, key string, now int64) error
	HasEntry(ctx context.Context, key string, now int64) (bool, error)
	DeleteEntry(ctx context.Context, key string) (bool, error)
	DeleteExpiredEntries(ctx context.Context, now int64) (int64, error)
	ClearEntries(ctx context.Context) error
	ListEntries(ctx context.Context, find *FindEntry) ([]*Entry, error)
	GetEntryStats(ctx context.Context, now int64) (*Stats, error)
}
