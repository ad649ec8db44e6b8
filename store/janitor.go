package store

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const janitorTimeout = 30 * time.Second

// runJanitor drives the periodic reclamation cycle. A failed cleanup is
// reported and the cycle continues; only Close stops it.
func (s *Store) runJanitor(interval time.Duration) {
	defer close(s.janitorStopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), janitorTimeout)
			removed, err := s.Cleanup(ctx)
			cancel()
			if err != nil {
				// The store was closed between the tick and the cleanup.
				if errors.Is(err, ErrNotInitialized) {
					return
				}
				slog.Warn("scheduled cache cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				slog.Debug("reclaimed expired cache entries", slog.Int64("removed", removed))
			}
		case <-s.janitorStop:
			return
		}
	}
}

func logTouchFailure(key string, err error) {
	slog.Warn("failed to update cache hit accounting", slog.String("key", key), slog.String("error", err.Error()))
}
