package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	actionKey contextKey = iota
)

// ActionFromContext returns the name of the action whose handler is running
// on ctx, or "" outside a handler.
func ActionFromContext(ctx context.Context) string {
	action, _ := ctx.Value(actionKey).(string)
	return action
}

func withAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKey, action)
}
