package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tradeflow/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "tradeflow:"

// Redis shares the snapshot across instances. The snapshot is stored as
// JSON under a single key that expires with the ttl.
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedis connects using a redis:// URL and pings the server.
func NewRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client, ""), nil
}

// NewRedisWithClient wraps an existing client; an empty prefix uses the
// default.
func NewRedisWithClient(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Redis{client: client, keyPrefix: keyPrefix}
}

func (r *Redis) key() string {
	return r.keyPrefix + "snapshot:current"
}

func (r *Redis) generationKey() string {
	return r.keyPrefix + "snapshot:generation"
}

func (r *Redis) Get(ctx context.Context) (domain.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, r.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("get cached snapshot: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Generation reads the shared counter; a missing key is generation 0.
func (r *Redis) Generation(ctx context.Context) (uint64, error) {
	gen, err := r.client.Get(ctx, r.generationKey()).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get snapshot generation: %w", err)
	}
	return gen, nil
}

// Set writes the snapshot under WATCH on the generation key, so a Delete from
// any instance between the check and the write aborts it.
func (r *Redis) Set(ctx context.Context, snap domain.Snapshot, ttl time.Duration, gen uint64) (bool, error) {
	if ttl <= 0 {
		if err := r.client.Del(ctx, r.key()).Err(); err != nil {
			return false, fmt.Errorf("drop cached snapshot: %w", err)
		}
		return false, nil
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return false, err
	}

	stored := false
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, r.generationKey()).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(), data, ttl)
			return nil
		}); err != nil {
			return err
		}
		stored = true
		return nil
	}, r.generationKey())
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache snapshot: %w", err)
	}
	return stored, nil
}

// Delete drops the snapshot and advances the generation in one transaction.
func (r *Redis) Delete(ctx context.Context) error {
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key())
		pipe.Incr(ctx, r.generationKey())
		return nil
	}); err != nil {
		return fmt.Errorf("drop cached snapshot: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func encodeSnapshot(snap domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return snap, nil
}

var _ SnapshotCache = (*Redis)(nil)
