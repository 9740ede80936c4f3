// Package scope binds values to the dynamic extent of a single call.
//
// A Runner executes a callback with a set of bindings visible to every
// Lookup performed on the callback's context, and removes them when the
// callback finishes, whether it returns normally, returns an error or
// panics. Scopes nest: an inner binding shadows an outer one for the
// duration of the inner call only.
//
// Nothing here is stored in a package-level variable. Bindings live on the
// context.Context handed to the callback, so two requests served by the
// same process can never observe each other's values.
package scope

import (
	"context"
	"sync/atomic"
)

// Key identifies a binding. Keys compare by identity; two keys created with
// the same name are distinct.
type Key struct {
	name string
}

// NewKey returns a new binding key. The name is only used for debugging.
func NewKey(name string) *Key {
	return &Key{name: name}
}

// String returns the key name.
func (k *Key) String() string {
	return k.name
}

// Bindings maps keys to the values visible inside a scope.
type Bindings map[*Key]any

// Runner runs fn inside a scope holding b.
type Runner interface {
	RunScope(ctx context.Context, b Bindings, fn func(ctx context.Context) error) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, b Bindings, fn func(ctx context.Context) error) error

// RunScope calls f.
func (f RunnerFunc) RunScope(ctx context.Context, b Bindings, fn func(ctx context.Context) error) error {
	return f(ctx, b, fn)
}

// Run is RunScope for callbacks that produce a result.
func Run[T any](ctx context.Context, r Runner, b Bindings, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.RunScope(ctx, b, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// frameKey is the context key under which the innermost frame is stored.
type frameKey struct{}

// frame is one level of the scope stack.
type frame struct {
	parent   *frame
	bindings Bindings
	closed   atomic.Bool
}

// Lookup returns the value bound to key in the innermost open scope of ctx.
// The walk stops at the first scope that has already exited, so a context
// leaked out of its scope (for example to a goroutine) resolves nothing from
// that scope or any scope around it.
func Lookup(ctx context.Context, key *Key) (any, bool) {
	for f, _ := ctx.Value(frameKey{}).(*frame); f != nil; f = f.parent {
		if f.closed.Load() {
			return nil, false
		}
		if v, ok := f.bindings[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get is Lookup with a type assertion. A value of the wrong type is treated
// as absent.
func Get[T any](ctx context.Context, key *Key) (T, bool) {
	v, ok := Lookup(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Active reports whether ctx carries an open scope.
func Active(ctx context.Context) bool {
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f != nil && !f.closed.Load()
}

// Depth returns the number of open scopes on ctx.
func Depth(ctx context.Context) int {
	if !Active(ctx) {
		return 0
	}
	n := 0
	for f, _ := ctx.Value(frameKey{}).(*frame); f != nil; f = f.parent {
		n++
	}
	return n
}
