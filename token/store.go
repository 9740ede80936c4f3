package token

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store resolves, creates and deletes tokens. Implementations must be safe
// for concurrent use by multiple requests; callers perform no locking.
type Store interface {
	// Load returns the token stored under id. Unknown, expired and empty ids
	// return (nil, nil). Backend failures return an error matching
	// ErrStorageFailure.
	Load(ctx context.Context, id string) (*Token, error)

	// Create stores a new token carrying payload. A zero expiresAt creates a
	// non-expiring token.
	Create(ctx context.Context, payload Payload, expiresAt time.Time) (*Token, error)

	// Delete removes tok. Deleting an unknown or already deleted token, or a
	// nil token, is not an error.
	Delete(ctx context.Context, tok *Token) error
}

// Clock is the time source used to evaluate expiry.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator produces token identifiers. Identifiers are bearer
// credentials, so implementations must draw from a cryptographically secure
// source.
type IDGenerator interface {
	NewID() (string, error)
}

// RandomIDGenerator builds random (version 4) UUIDs from Reader. A nil Reader
// uses crypto/rand.
type RandomIDGenerator struct {
	Reader io.Reader
}

// NewID returns a fresh identifier.
func (g RandomIDGenerator) NewID() (string, error) {
	r := g.Reader
	if r == nil {
		r = rand.Reader
	}
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MaxCreateAttempts bounds how many ids a store draws before giving up on a
// collision.
const MaxCreateAttempts = 3

// Options holds the collaborators shared by every Store implementation.
type Options struct {
	Clock Clock
	IDs   IDGenerator
}

// Option configures a Store.
type Option func(*Options)

// WithClock sets the time source used for expiry checks.
func WithClock(c Clock) Option {
	return func(o *Options) {
		if c != nil {
			o.Clock = c
		}
	}
}

// WithIDGenerator sets the identifier source used by Create.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *Options) {
		if g != nil {
			o.IDs = g
		}
	}
}

// ApplyOptions returns Options with defaults filled in and opts applied.
func ApplyOptions(opts ...Option) Options {
	o := Options{
		Clock: SystemClock{},
		IDs:   RandomIDGenerator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
