// Package jwtstore implements a stateless token.Store whose token ids are
// signed JWTs.
//
// The whole token travels inside its id: claims are kept under the "pld"
// claim in insertion order, "jti" carries a random identifier and "exp" the
// expiry. Nothing is persisted, so Delete cannot revoke a token; it only
// satisfies the contract. Use a stateful store when logout must invalidate
// credentials server-side.
package jwtstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/auth0/go-scoped-auth/token"
)

// MinKeyLength is the shortest accepted HMAC key in bytes.
const MinKeyLength = 32

const payloadClaim = "pld"

var (
	ErrKeyTooShort = fmt.Errorf("signing key must be at least %d bytes", MinKeyLength)
	ErrIssuerEmpty = errors.New("issuer cannot be empty")
)

// Store signs and verifies tokens with an HS256 key.
type Store struct {
	key    []byte
	issuer string
	opts   token.Options
}

var _ token.Store = (*Store)(nil)

// New returns a Store signing with key. The key is copied.
func New(key []byte, issuer string, opts ...token.Option) (*Store, error) {
	if len(key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	if issuer == "" {
		return nil, ErrIssuerEmpty
	}

	return &Store{
		key:    append([]byte(nil), key...),
		issuer: issuer,
		opts:   token.ApplyOptions(opts...),
	}, nil
}

// claims mirrors the signed claim set. It is decoded with encoding/json so
// the payload keeps its order.
type claims struct {
	Issuer     string        `json:"iss"`
	ID         string        `json:"jti"`
	Expiration *int64        `json:"exp,omitempty"`
	Payload    token.Payload `json:"pld"`
}

// Load verifies id and returns the token it carries. Tokens with a bad
// signature, a foreign issuer or a past expiry are absent, not errors.
func (s *Store) Load(_ context.Context, id string) (*token.Token, error) {
	if id == "" {
		return nil, nil
	}

	raw, err := jws.Verify([]byte(id), jws.WithKey(jwa.HS256, s.key))
	if err != nil {
		return nil, nil
	}

	var c claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, nil
	}
	if c.Issuer != s.issuer {
		return nil, nil
	}

	var exp time.Time
	if c.Expiration != nil {
		exp = time.Unix(*c.Expiration, 0)
	}

	tok := token.New(id, c.Payload, exp)
	if tok.Expired(s.opts.Clock.Now()) {
		return nil, nil
	}
	return tok, nil
}

// Create signs a new token. Expiry is truncated to whole seconds, the
// resolution of the "exp" claim.
func (s *Store) Create(_ context.Context, payload token.Payload, expiresAt time.Time) (*token.Token, error) {
	jti, err := s.opts.IDs.NewID()
	if err != nil {
		return nil, token.NewStorageError("create", err)
	}

	b := jwt.NewBuilder().
		Issuer(s.issuer).
		JwtID(jti).
		IssuedAt(s.opts.Clock.Now()).
		Claim(payloadClaim, payload)
	if !expiresAt.IsZero() {
		expiresAt = expiresAt.Truncate(time.Second)
		b = b.Expiration(expiresAt)
	}

	t, err := b.Build()
	if err != nil {
		return nil, token.NewStorageError("create", fmt.Errorf("building jwt: %w", err))
	}

	signed, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return nil, token.NewStorageError("create", fmt.Errorf("signing jwt: %w", err))
	}

	return token.New(string(signed), payload, expiresAt), nil
}

// Delete is a no-op: a signed token stays valid until it expires.
func (s *Store) Delete(context.Context, *token.Token) error {
	return nil
}
