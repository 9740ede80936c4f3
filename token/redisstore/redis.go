// Package redisstore provides a Redis-backed implementation of token.Store,
// suitable for sharing tokens across server replicas.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/auth0/go-scoped-auth/token"
)

// DefaultKeyPrefix is used when Config.KeyPrefix is empty.
const DefaultKeyPrefix = "scopedauth:token:"

// minTTL is the shortest key lifetime handed to Redis. Expiry is still
// decided by the store clock at load time.
const minTTL = time.Second

// Config contains configuration options for the Redis store.
type Config struct {
	// Client is the Redis client instance. Required.
	Client redis.UniversalClient

	// KeyPrefix is the prefix for all Redis keys.
	// Default: "scopedauth:token:"
	KeyPrefix string
}

// Store implements token.Store using Redis.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	opts      token.Options
}

var _ token.Store = (*Store)(nil)

// New creates a new Redis-backed store.
func New(cfg Config, opts ...token.Option) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	return &Store{
		client:    cfg.Client,
		keyPrefix: cfg.KeyPrefix,
		opts:      token.ApplyOptions(opts...),
	}, nil
}

// Load retrieves the token stored under id.
func (s *Store) Load(ctx context.Context, id string) (*token.Token, error) {
	if id == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, token.NewStorageError("load", fmt.Errorf("failed to get key: %w", err))
	}

	tok, err := token.Decode(id, data)
	if err != nil {
		return nil, token.NewStorageError("load", fmt.Errorf("failed to unmarshal stored token: %w", err))
	}

	if tok.Expired(s.opts.Clock.Now()) {
		// Best effort; the key TTL cleans up anyway.
		s.client.Del(ctx, s.key(id))
		return nil, nil
	}

	return tok, nil
}

// Create stores a new token. SETNX guards against id collisions between
// replicas.
func (s *Store) Create(ctx context.Context, payload token.Payload, expiresAt time.Time) (*token.Token, error) {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.opts.Clock.Now())
		if ttl < minTTL {
			ttl = minTTL
		}
	}

	for attempt := 0; attempt < token.MaxCreateAttempts; attempt++ {
		id, err := s.opts.IDs.NewID()
		if err != nil {
			return nil, token.NewStorageError("create", err)
		}

		tok := token.New(id, payload, expiresAt)
		data, err := token.Encode(tok)
		if err != nil {
			return nil, token.NewStorageError("create", fmt.Errorf("failed to marshal token: %w", err))
		}

		ok, err := s.client.SetNX(ctx, s.key(id), data, ttl).Result()
		if err != nil {
			return nil, token.NewStorageError("create", fmt.Errorf("failed to set key: %w", err))
		}
		if ok {
			return tok, nil
		}
	}

	return nil, token.NewStorageError("create", token.ErrIDCollision)
}

// Delete removes tok. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, tok *token.Token) error {
	if tok == nil {
		return nil
	}
	if err := s.client.Del(ctx, s.key(tok.ID())).Err(); err != nil {
		return token.NewStorageError("delete", fmt.Errorf("failed to delete key: %w", err))
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.keyPrefix + id
}
