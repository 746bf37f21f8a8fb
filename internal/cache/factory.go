package cache

import (
	"context"

	"go.uber.org/zap"
)

// New returns a Redis cache when redisURL is set and reachable. Otherwise it
// falls back to the in-process cache and logs why.
func New(ctx context.Context, redisURL string, log *zap.Logger) SnapshotCache {
	if log == nil {
		log = zap.NewNop()
	}
	if redisURL == "" {
		log.Info("using in-memory snapshot cache")
		return NewMemory()
	}

	store, err := NewRedis(ctx, redisURL)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory snapshot cache", zap.Error(err))
		return NewMemory()
	}
	log.Info("using redis snapshot cache")
	return store
}
