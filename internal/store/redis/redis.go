package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicomputer/retail-pos/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// Store keeps session entries in Redis under "<prefix>:<key>".
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store/redis: ping: %w", err)
	}

	return client, nil
}

// New wraps client. A zero ttl keeps entries until they are removed.
func New(client *goredis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "pos"
	}
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("store/redis: get: %w", err)
	}
	return payload, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("store/redis: set: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("store/redis: del: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) redisKey(key string) string {
	return s.prefix + ":" + key
}

var _ store.Store = (*Store)(nil)
