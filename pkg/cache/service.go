package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookd/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error

	// Cache-aside helper: dest is filled from the cache or from fetch
	GetOrSet(ctx context.Context, key string, ttl time.Duration, dest interface{}, fetch func() (interface{}, error)) error

	Ping(ctx context.Context) error
}

type service struct {
	client redis.Cmdable
	maxTTL time.Duration
}

type Option func(*service)

// WithMaxTTL caps every entry's lifetime. Entries written without a TTL get the cap.
func WithMaxTTL(ttl time.Duration) Option {
	return func(s *service) { s.maxTTL = ttl }
}

func NewService(client redis.Cmdable, opts ...Option) Service {
	s := &service{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) effectiveTTL(ttl time.Duration) time.Duration {
	if s.maxTTL > 0 && (ttl <= 0 || ttl > s.maxTTL) {
		return s.maxTTL
	}
	return ttl
}

func (s *service) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

func (s *service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := s.client.Set(ctx, key, string(data), s.effectiveTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

func (s *service) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// DeletePattern walks the keyspace with SCAN so large keyspaces don't block Redis
func (s *service) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}
		if err := s.Delete(ctx, keys...); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *service) GetOrSet(ctx context.Context, key string, ttl time.Duration, dest interface{}, fetch func() (interface{}, error)) error {
	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.GetDefault().Warn("cache read failed, falling back to source", "key", key, "error", err)
	}

	data, err := fetch()
	if err != nil {
		return err
	}

	if setErr := s.Set(ctx, key, data, ttl); setErr != nil {
		logger.GetDefault().Warn("cache write failed", "key", key, "error", setErr)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal fetched data error: %w", err)
	}
	return json.Unmarshal(jsonData, dest)
}

func (s *service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// noop is used when Redis is disabled
type noop struct{}

// NewNoop returns a Service that never caches
func NewNoop() Service {
	return noop{}
}

func (noop) Get(context.Context, string, interface{}) error { return ErrCacheMiss }
func (noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (noop) Delete(context.Context, ...string) error { return nil }
func (noop) DeletePattern(context.Context, string) error { return nil }
func (noop) Ping(context.Context) error { return nil }
func (noop) GetOrSet(_ context.Context, _ string, _ time.Duration, dest interface{}, fetch func() (interface{}, error)) error {
	data, err := fetch()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
