package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// sessionKey is the fixed storage key for the active session. The source
// product keeps a single active session, not one per user; preserved as
// a known limitation.
const sessionKey = "haven:session:active"

// RedisStore persists the active session in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKey overrides the storage key, e.g. to namespace tests.
func WithKey(key string) RedisStoreOption {
	return func(s *RedisStore) { s.key = key }
}

// WithLogger sets the logger used for corrupt-state warnings.
func WithLogger(logger *slog.Logger) RedisStoreOption {
	return func(s *RedisStore) { s.logger = logger }
}

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    sessionKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save serializes the progress under the session key. Sessions have no
// TTL; they live until Clear.
func (s *RedisStore) Save(ctx context.Context, p *Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return &PersistenceWriteError{Err: err}
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return &PersistenceWriteError{Err: err}
	}
	return nil
}

// Load reads the stored session. Absence and corrupt payloads both mean
// "no active session".
func (s *RedisStore) Load(ctx context.Context) (*Progress, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("stored session failed to parse, starting fresh",
			"key", s.key, "error", err)
		return nil, nil
	}
	p.normalize()
	return &p, nil
}

// Clear removes the stored session.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

var _ Store = (*RedisStore)(nil)
