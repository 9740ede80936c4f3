// Package token defines the credential value resolved by the middleware and
// the storage contract used to create, load and delete it.
//
// A Token is immutable. Stores hand out new Token values and never modify a
// Token after returning it. Expiry is always evaluated by the store at load
// time against an injectable Clock, never delegated to the backend.
package token

import (
	"encoding/json"
	"time"
)

// Token is a proven credential: an opaque id, the claims it carries, and an
// optional absolute expiry.
type Token struct {
	id        string
	payload   Payload
	expiresAt time.Time
}

// New builds a Token. A zero expiresAt means the token never expires.
func New(id string, payload Payload, expiresAt time.Time) *Token {
	return &Token{
		id:        id,
		payload:   payload.clone(),
		expiresAt: expiresAt,
	}
}

// ID returns the token identifier. It is a bearer credential and must not
// be logged.
func (t *Token) ID() string {
	return t.id
}

// Payload returns the claims carried by the token.
func (t *Token) Payload() Payload {
	return t.payload
}

// ExpiresAt returns the expiry and whether one is set.
func (t *Token) ExpiresAt() (time.Time, bool) {
	return t.expiresAt, !t.expiresAt.IsZero()
}

// Expired reports whether the token is expired at now.
func (t *Token) Expired(now time.Time) bool {
	if t.expiresAt.IsZero() {
		return false
	}
	return !now.Before(t.expiresAt)
}

// Subject returns the "sub" claim, if present.
func (t *Token) Subject() string {
	return t.payload.String("sub")
}

// Record is the serialized form stores use to persist a token.
type Record struct {
	Payload   Payload    `json:"payload"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Encode returns the JSON record for t. The id is not part of the record;
// stores key records by id.
func Encode(t *Token) ([]byte, error) {
	rec := Record{Payload: t.payload}
	if exp, ok := t.ExpiresAt(); ok {
		exp = exp.UTC()
		rec.ExpiresAt = &exp
	}
	return json.Marshal(rec)
}

// Decode rebuilds the Token stored under id.
func Decode(id string, data []byte) (*Token, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	var exp time.Time
	if rec.ExpiresAt != nil {
		exp = *rec.ExpiresAt
	}
	return &Token{id: id, payload: rec.Payload, expiresAt: exp}, nil
}
