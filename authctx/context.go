package authctx

import (
	"context"

	"github.com/auth0/go-scoped-auth/scope"
	"github.com/auth0/go-scoped-auth/token"
)

// FromContext returns the AuthContext bound in the current scope of ctx.
func FromContext(ctx context.Context) (*AuthContext, bool) {
	return scope.Get[*AuthContext](ctx, Key)
}

// TokenFromContext returns the active token of the current scope, or nil.
func TokenFromContext(ctx context.Context) *token.Token {
	a, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return a.Token()
}

// ActorFromContext returns the actor of the current scope, or nil.
func ActorFromContext(ctx context.Context) Actor {
	a, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return a.Actor()
}

// GetActor returns the actor of the current scope asserted to T.
//
// Example:
//
//	user, ok := authctx.GetActor[*User](ctx)
//	if !ok {
//	    return ErrUnauthenticated
//	}
func GetActor[T any](ctx context.Context) (T, bool) {
	t, ok := ActorFromContext(ctx).(T)
	return t, ok
}
