package core

import (
	"context"
	"errors"
	"fmt"
)

// Next invokes the remainder of a chain.
type Next func(ctx context.Context, action string, params Params) (any, error)

// Interceptor wraps a call to the next element of a chain. It may call next
// zero times (short-circuit), once (pass-through) or several times (retry),
// and may change the action, the params or the result.
type Interceptor interface {
	Intercept(ctx context.Context, action string, params Params, next Next) (any, error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, action string, params Params, next Next) (any, error)

// Intercept calls f.
func (f InterceptorFunc) Intercept(ctx context.Context, action string, params Params, next Next) (any, error) {
	return f(ctx, action, params, next)
}

// Chain is a Core that routes every call through an ordered list of
// interceptors before reaching the wrapped Core.
type Chain struct {
	core         Core
	interceptors []Interceptor
	entry        Next
}

var _ Core = (*Chain)(nil)

// NewChain composes interceptors around c. The first interceptor is the
// outermost: it runs first on the way in and last on the way out. The
// closures are assembled here once; Call does no composition work.
func NewChain(c Core, interceptors ...Interceptor) (*Chain, error) {
	if c == nil {
		return nil, NewError(ErrorCodeCoreNotSet, "core cannot be nil", nil)
	}
	for i, ic := range interceptors {
		if ic == nil {
			return nil, NewError(ErrorCodeConfigInvalid, fmt.Sprintf("interceptor %d is nil", i), nil)
		}
	}

	next := Next(c.Call)
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic, inner := interceptors[i], next
		next = func(ctx context.Context, action string, params Params) (any, error) {
			return ic.Intercept(ctx, action, params, inner)
		}
	}

	return &Chain{
		core:         c,
		interceptors: append([]Interceptor(nil), interceptors...),
		entry:        next,
	}, nil
}

// Call runs action through the chain. A panic raised by an interceptor is
// returned as an *InvocationError.
func (c *Chain) Call(ctx context.Context, action string, params Params) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, &InvocationError{Action: action, Err: fmt.Errorf("panic: %v", rec), Panicked: true}
		}
	}()
	return c.entry(ctx, action, params)
}

// Len returns the number of interceptors.
func (c *Chain) Len() int {
	return len(c.interceptors)
}

// Retry returns an Interceptor that calls next up to attempts times while
// retryable reports the error as transient. A nil retryable retries every
// error except ErrActionNotFound and context cancellation. Retries stop
// early when ctx is done.
func Retry(attempts int, retryable func(error) bool) Interceptor {
	if attempts < 1 {
		attempts = 1
	}
	if retryable == nil {
		retryable = func(err error) bool {
			return !errors.Is(err, ErrActionNotFound) &&
				!errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded)
		}
	}

	return InterceptorFunc(func(ctx context.Context, action string, params Params, next Next) (any, error) {
		var (
			result any
			err    error
		)
		for i := 0; i < attempts; i++ {
			result, err = next(ctx, action, params)
			if err == nil || !retryable(err) || ctx.Err() != nil {
				return result, err
			}
		}
		return result, err
	})
}
