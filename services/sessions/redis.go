package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mynahbackend/config"
	"mynahbackend/core"
)

const RedisKeyPrefix = "mynah:session:"

type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, prefix: RedisKeyPrefix}
}

// NewRedisClient builds a client from REDIS_URL when present, host/port otherwise
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		DB:       cfg.DB,
		Password: cfg.Password,
	}), nil
}

func (b *RedisBackend) Name() string {
	return "redis"
}

func (b *RedisBackend) key(sessionID string) string {
	return b.prefix + sessionID
}

func (b *RedisBackend) Put(
	ctx context.Context,
	sessionID string,
	payload []byte,
	revision int64,
	ttl time.Duration,
) error {
	if err := b.client.Set(ctx, b.key(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session key: %w", err)
	}
	return nil
}

func (b *RedisBackend) PutIfRevision(
	ctx context.Context,
	sessionID string,
	payload []byte,
	revision, expected int64,
	ttl time.Duration,
) error {
	key := b.key(sessionID)

	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		var current int64
		stored, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("failed to read session key: %w", err)
		default:
			current, err = payloadRevision(stored)
			if err != nil {
				return err
			}
		}

		if current != expected {
			return core.ErrRevisionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return core.ErrRevisionConflict
	}
	return err
}

func (b *RedisBackend) Get(ctx context.Context, sessionID string, ttl time.Duration) ([]byte, bool, error) {
	key := b.key(sessionID)

	var get *redis.StringCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("failed to get session key: %w", err)
	}

	payload, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session key: %w", err)
	}
	return payload, true, nil
}

func (b *RedisBackend) Peek(ctx context.Context, sessionID string) ([]byte, bool, error) {
	payload, err := b.client.Get(ctx, b.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to peek session key: %w", err)
	}
	return payload, true, nil
}

func (b *RedisBackend) Delete(ctx context.Context, sessionID string) (bool, error) {
	removed, err := b.client.Del(ctx, b.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete session key: %w", err)
	}
	return removed > 0, nil
}

func (b *RedisBackend) Exists(ctx context.Context, sessionID string) (bool, error) {
	count, err := b.client.Exists(ctx, b.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session key: %w", err)
	}
	return count > 0, nil
}

func (b *RedisBackend) SessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := b.client.Scan(ctx, 0, b.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), b.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan session keys: %w", err)
	}
	return ids, nil
}

func (b *RedisBackend) TTL(ctx context.Context, sessionID string) (time.Duration, bool, error) {
	ttl, err := b.client.TTL(ctx, b.key(sessionID)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get session key ttl: %w", err)
	}

	// -2 means missing, -1 means no expiry
	switch ttl {
	case -2:
		return 0, false, nil
	case -1:
		return 0, true, nil
	}
	return ttl, true, nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) KeyPrefix() string {
	return b.prefix
}
