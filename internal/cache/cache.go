// Package cache holds the most recent consistent snapshot so every view
// rendered within its lifetime reads the same data.
package cache

import (
	"context"
	"time"

	"tradeflow/internal/domain"
)

// SnapshotCache stores at most one snapshot. Get reports a miss with a
// false second return, not an error.
//
// Every Delete advances the generation. Set stores only while the generation
// still equals gen, so a load that started before a write cannot put its
// stale snapshot back after the write invalidated the cache.
type SnapshotCache interface {
	Get(ctx context.Context) (domain.Snapshot, bool, error)
	Generation(ctx context.Context) (uint64, error)
	Set(ctx context.Context, snap domain.Snapshot, ttl time.Duration, gen uint64) (bool, error)
	Delete(ctx context.Context) error
	Close() error
}
