package store

import "time"

// Entry is a single cache row as persisted by a driver. Value holds the
// JSON-serialized payload; timestamps are unix seconds.
type Entry struct {
	Key        string
	Value      string
	ExpiresAt  int64
	CreatedAt  int64
	AccessedAt int64
	HitCount   int64
}

// IsActive reports whether the entry has not expired at the given instant.
func (e *Entry) IsActive(now int64) bool {
	return e.ExpiresAt > now
}

// EntrySnapshot is the read-side view of an active entry with the payload
// deserialized and timestamps converted to absolute time.
type EntrySnapshot struct {
	Key        string    `json:"key"`
	Value      any       `json:"value"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
	HitCount   int64     `json:"hit_count"`
}

// FindEntry is the filter for listing entries.
type FindEntry struct {
	// ActiveAt restricts the result to entries not expired at this instant.
	ActiveAt int64
	Limit    *int
}

// Stats is an aggregate snapshot over the full stored set, including
// expired rows that have not been reclaimed yet.
type Stats struct {
	Total     int64   `json:"total"`
	Active    int64   `json:"active"`
	Expired   int64   `json:"expired"`
	AvgSize   float64 `json:"avg_size"`
	TotalHits int64   `json:"total_hits"`
	HitRate   float64 `json:"hit_rate"`
}
