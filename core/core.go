// Package core provides the framework-agnostic action dispatcher and the
// interceptor chain that wraps it.
//
// Core is the innermost entry point: it executes a named action and knows
// nothing about authentication, metrics or caching. Cross-cutting behavior
// is layered on with Interceptors composed by NewChain, and since a Chain
// is itself a Core, chains nest transparently.
package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Params carries the named arguments of an action call.
type Params map[string]any

// Core dispatches a named action.
type Core interface {
	Call(ctx context.Context, action string, params Params) (any, error)
}

// Handler executes one action.
type Handler interface {
	Handle(ctx context.Context, params Params) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, params Params) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, params Params) (any, error) {
	return f(ctx, params)
}

// Logger defines an optional logging interface for the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Registry is the Core that maps action names to handlers.
// Registration is expected at startup; Call is safe for concurrent use
// with itself and with Register.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   Logger
}

var _ Core = (*Registry)(nil)

// Register adds h under action. Registering an empty name, a nil handler
// or a duplicate name is an error.
func (r *Registry) Register(action string, h Handler) error {
	if action == "" {
		return NewError(ErrorCodeConfigInvalid, "action name cannot be empty", nil)
	}
	if h == nil {
		return NewError(ErrorCodeConfigInvalid, fmt.Sprintf("handler for %q cannot be nil", action), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[action]; exists {
		return NewError(ErrorCodeDuplicateAction, fmt.Sprintf("action %q is already registered", action), nil)
	}
	r.handlers[action] = h
	return nil
}

// RegisterFunc registers a function handler.
func (r *Registry) RegisterFunc(action string, fn func(ctx context.Context, params Params) (any, error)) error {
	if fn == nil {
		return r.Register(action, nil)
	}
	return r.Register(action, HandlerFunc(fn))
}

// Actions returns the registered action names, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call executes the handler registered for action.
//
//   - An unknown action fails with an *ActionError matching ErrActionNotFound.
//   - A handler that returns an error or panics fails with an
//     *InvocationError carrying the cause.
func (r *Registry) Call(ctx context.Context, action string, params Params) (result any, err error) {
	r.mu.RLock()
	h, ok := r.handlers[action]
	r.mu.RUnlock()

	if !ok {
		if r.logger != nil {
			r.logger.Warn("action not found", "action", action)
		}
		return nil, &ActionError{Action: action}
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, &InvocationError{Action: action, Err: fmt.Errorf("panic: %v", rec), Panicked: true}
		}
		if r.logger != nil {
			if err != nil {
				r.logger.Error("action failed", "action", action, "error", err, "duration", time.Since(start))
			} else {
				r.logger.Debug("action completed", "action", action, "duration", time.Since(start))
			}
		}
	}()

	result, err = h.Handle(withAction(ctx, action), params)
	if err != nil {
		return nil, wrapInvocation(action, err)
	}
	return result, nil
}
