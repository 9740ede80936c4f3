// Package authctx holds the per-request authentication state and the helpers
// that resolve it from a request scope.
//
// An AuthContext is created for exactly one request. The middleware binds it
// under Key for the duration of the request and closes it when the request
// scope exits; after that it reports neither a token nor an actor.
package authctx

import (
	"context"
	"errors"
	"sync"

	"github.com/auth0/go-scoped-auth/scope"
	"github.com/auth0/go-scoped-auth/token"
)

// Key is the scope key under which the request's AuthContext is bound.
var Key = scope.NewKey("authctx")

// ErrClosed is returned when starting a closed AuthContext.
var ErrClosed = errors.New("auth context is closed")

// Actor is the resolved principal behind a token. Its concrete type belongs
// to the application.
type Actor any

// ActorResolver resolves the actor for a token. A nil actor with a nil
// error means the token carries no resolvable actor.
type ActorResolver interface {
	ResolveActor(ctx context.Context, tok *token.Token) (Actor, error)
}

// ActorResolverFunc adapts a function to the ActorResolver interface.
type ActorResolverFunc func(ctx context.Context, tok *token.Token) (Actor, error)

// ResolveActor calls f.
func (f ActorResolverFunc) ResolveActor(ctx context.Context, tok *token.Token) (Actor, error) {
	return f(ctx, tok)
}

// AuthContext is the mutable authentication state of one request.
type AuthContext struct {
	mu     sync.RWMutex
	token  *token.Token
	actor  Actor
	closed bool
}

// New returns an empty, anonymous AuthContext.
func New() *AuthContext {
	return &AuthContext{}
}

// Start populates the context with tok and actor. Calling Start again
// re-arms the context: both fields are replaced together, and readers see
// either the old pair or the new one, never a mix.
func (a *AuthContext) Start(tok *token.Token, actor Actor) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	a.token = tok
	a.actor = actor
	return nil
}

// Close ends the context. It is idempotent.
func (a *AuthContext) Close() {
	a.mu.Lock()
	a.closed = true
	a.token = nil
	a.actor = nil
	a.mu.Unlock()
}

// IsClosed reports whether Close has been called.
func (a *AuthContext) IsClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// Token returns the active token, or nil for an anonymous or closed context.
func (a *AuthContext) Token() *token.Token {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Actor returns the resolved actor, or nil.
func (a *AuthContext) Actor() Actor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.actor
}

// Snapshot returns the token and actor as one consistent pair.
func (a *AuthContext) Snapshot() (*token.Token, Actor) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token, a.actor
}

// Authenticated reports whether a token is active.
func (a *AuthContext) Authenticated() bool {
	return a.Token() != nil
}
