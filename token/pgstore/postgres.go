// Package pgstore provides a PostgreSQL implementation of token.Store.
// It uses pgx/v5 for connection pooling and stores claims as json so their
// order is preserved.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auth0/go-scoped-auth/token"
)

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is a PostgreSQL-backed token store.
type Store struct {
	pool   *pgxpool.Pool
	opts   token.Options
	logger Logger
}

var _ token.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config, opts ...token.Option) (*Store, error) {
	return NewWithLogger(ctx, cfg, nil, opts...)
}

// NewWithLogger is New with a logger for migration and housekeeping output.
func NewWithLogger(ctx context.Context, cfg Config, logger Logger, opts ...token.Option) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, opts: token.ApplyOptions(opts...), logger: logger}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Load returns the token stored under id, or nil if it is unknown or
// expired according to the store clock.
func (s *Store) Load(ctx context.Context, id string) (*token.Token, error) {
	if id == "" {
		return nil, nil
	}

	var (
		payload   []byte
		expiresAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		"SELECT payload, expires_at FROM auth_tokens WHERE id = $1",
		id,
	).Scan(&payload, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, token.NewStorageError("load", fmt.Errorf("querying token: %w", err))
	}

	var p token.Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, token.NewStorageError("load", fmt.Errorf("unmarshaling payload: %w", err))
	}

	var exp time.Time
	if expiresAt != nil {
		exp = *expiresAt
	}
	tok := token.New(id, p, exp)
	if tok.Expired(s.opts.Clock.Now()) {
		return nil, nil
	}
	return tok, nil
}

// Create inserts a new token. The primary key detects id collisions.
func (s *Store) Create(ctx context.Context, payload token.Payload, expiresAt time.Time) (*token.Token, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, token.NewStorageError("create", fmt.Errorf("marshaling payload: %w", err))
	}

	var exp *time.Time
	if !expiresAt.IsZero() {
		exp = &expiresAt
	}

	for attempt := 0; attempt < token.MaxCreateAttempts; attempt++ {
		id, err := s.opts.IDs.NewID()
		if err != nil {
			return nil, token.NewStorageError("create", err)
		}

		tag, err := s.pool.Exec(ctx,
			"INSERT INTO auth_tokens (id, payload, expires_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
			id, data, exp,
		)
		if err != nil {
			return nil, token.NewStorageError("create", fmt.Errorf("inserting token: %w", err))
		}
		if tag.RowsAffected() == 1 {
			return token.New(id, payload, expiresAt), nil
		}
	}

	return nil, token.NewStorageError("create", token.ErrIDCollision)
}

// Delete removes tok. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, tok *token.Token) error {
	if tok == nil {
		return nil
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM auth_tokens WHERE id = $1", tok.ID()); err != nil {
		return token.NewStorageError("delete", fmt.Errorf("deleting token: %w", err))
	}
	return nil
}

// PurgeExpired removes every token expired at the store clock's current time
// and returns how many rows were deleted.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM auth_tokens WHERE expires_at IS NOT NULL AND expires_at <= $1",
		s.opts.Clock.Now(),
	)
	if err != nil {
		return 0, token.NewStorageError("purge", fmt.Errorf("purging expired tokens: %w", err))
	}
	if s.logger != nil && tag.RowsAffected() > 0 {
		s.logger.Debug("purged expired tokens", "count", tag.RowsAffected())
	}
	return tag.RowsAffected(), nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
