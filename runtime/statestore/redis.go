package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "cosyvoice"

// RedisStore provides a Redis-backed implementation of the Store interface.
// Each record is stored as a JSON document; a set indexes the providers.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the time-to-live for persisted records.
// Default is 0 (no expiration).
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for Redis keys.
// Default is "cosyvoice".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed settings store.
//
// Example:
//
//	store := NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithPrefix("tts"),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// LoadSettings retrieves the persisted record for provider.
func (s *RedisStore) LoadSettings(ctx context.Context, provider string) (map[string]any, error) {
	if provider == "" {
		return nil, ErrInvalidProvider
	}

	data, err := s.client.Get(ctx, s.settingsKey(provider)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// SaveSettings replaces the persisted record for provider.
func (s *RedisStore) SaveSettings(ctx context.Context, provider string, values map[string]any) error {
	if provider == "" {
		return ErrInvalidProvider
	}
	if values == nil {
		values = map[string]any{}
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.settingsKey(provider), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), provider)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// DeleteSettings removes the persisted record for provider.
func (s *RedisStore) DeleteSettings(ctx context.Context, provider string) error {
	if provider == "" {
		return ErrInvalidProvider
	}

	pipe := s.client.TxPipeline()
	delCmd := pipe.Del(ctx, s.settingsKey(provider))
	pipe.SRem(ctx, s.indexKey(), provider)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	if delCmd.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProviders returns the indexed providers whose record still exists.
// Providers whose record has expired are dropped from the index.
func (s *RedisStore) ListProviders(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	providers := make([]string, 0, len(members))
	for _, provider := range members {
		exists, err := s.client.Exists(ctx, s.settingsKey(provider)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check provider %s: %w", provider, err)
		}
		if exists == 0 {
			s.client.SRem(ctx, s.indexKey(), provider)
			continue
		}
		providers = append(providers, provider)
	}

	slices.Sort(providers)
	return providers, nil
}

func (s *RedisStore) settingsKey(provider string) string {
	return fmt.Sprintf("%s:settings:%s", s.prefix, provider)
}

func (s *RedisStore) indexKey() string {
	return fmt.Sprintf("%s:providers", s.prefix)
}
