package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// OpenRedis connects and pings. A "redis://" prefix on addr is tolerated.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	addr = strings.TrimPrefix(addr, "redis://")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisStore keeps each value under "<prefix><namespace>:<key>" with no TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "lessonrunner:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(ns Namespace, key string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, ns, key)
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	if err := checkKey(ns, key); err != nil {
		return nil, err
	}
	b, err := s.client.Get(ctx, s.key(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *RedisStore) Put(ctx context.Context, ns Namespace, key string, data []byte) error {
	if err := checkKey(ns, key); err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(ns, key), data, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, ns Namespace, key string) error {
	return s.client.Del(ctx, s.key(ns, key)).Err()
}
