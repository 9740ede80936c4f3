package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger is a mock implementation of Logger for testing.
type mockLogger struct {
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg  string
	args []any
}

func (m *mockLogger) Debug(msg string, args ...any) {
	m.debugCalls = append(m.debugCalls, logCall{msg, args})
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.infoCalls = append(m.infoCalls, logCall{msg, args})
}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.warnCalls = append(m.warnCalls, logCall{msg, args})
}

func (m *mockLogger) Error(msg string, args ...any) {
	m.errorCalls = append(m.errorCalls, logCall{msg, args})
}

func TestNew(t *testing.T) {
	t.Run("successful creation without options", func(t *testing.T) {
		reg, err := New()
		require.NoError(t, err)
		assert.NotNil(t, reg)
		assert.Empty(t, reg.Actions())
	})

	t.Run("successful creation with all options", func(t *testing.T) {
		logger := &mockLogger{}
		reg, err := New(
			WithLogger(logger),
			WithHandlers(map[string]Handler{
				"b": HandlerFunc(func(context.Context, Params) (any, error) { return nil, nil }),
				"a": HandlerFunc(func(context.Context, Params) (any, error) { return nil, nil }),
			}),
		)
		require.NoError(t, err)
		assert.NotNil(t, reg.logger)
		assert.Equal(t, []string{"a", "b"}, reg.Actions())
	})

	t.Run("error when logger is nil", func(t *testing.T) {
		reg, err := New(WithLogger(nil))
		assert.Error(t, err)
		assert.Nil(t, reg)
		assert.Contains(t, err.Error(), "logger cannot be nil")
	})

	t.Run("error when a handler is nil", func(t *testing.T) {
		reg, err := New(WithHandlers(map[string]Handler{"x": nil}))
		assert.Nil(t, reg)
		var coreErr *Error
		require.ErrorAs(t, err, &coreErr)
		assert.Equal(t, ErrorCodeConfigInvalid, coreErr.Code)
	})
}

func TestRegistry_Register(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	require.NoError(t, reg.RegisterFunc("ping", func(context.Context, Params) (any, error) { return "pong", nil }))

	err = reg.RegisterFunc("ping", func(context.Context, Params) (any, error) { return nil, nil })
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, ErrorCodeDuplicateAction, coreErr.Code)

	err = reg.RegisterFunc("", func(context.Context, Params) (any, error) { return nil, nil })
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, ErrorCodeConfigInvalid, coreErr.Code)

	err = reg.RegisterFunc("nil", nil)
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, ErrorCodeConfigInvalid, coreErr.Code)
}

func TestRegistry_Call(t *testing.T) {
	errDomain := errors.New("insufficient funds")

	logger := &mockLogger{}
	reg, err := New(WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, reg.RegisterFunc("sum", func(_ context.Context, p Params) (any, error) {
		return p["a"].(int) + p["b"].(int), nil
	}))
	require.NoError(t, reg.RegisterFunc("fail", func(context.Context, Params) (any, error) {
		return nil, errDomain
	}))
	require.NoError(t, reg.RegisterFunc("explode", func(context.Context, Params) (any, error) {
		panic("handler bug")
	}))

	t.Run("dispatches to the registered handler", func(t *testing.T) {
		got, err := reg.Call(context.Background(), "sum", Params{"a": 2, "b": 3})
		require.NoError(t, err)
		assert.Equal(t, 5, got)
		assert.NotEmpty(t, logger.debugCalls)
	})

	t.Run("unknown action", func(t *testing.T) {
		got, err := reg.Call(context.Background(), "nope", nil)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrActionNotFound)
		assert.NotErrorIs(t, err, ErrInvocation)

		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, "nope", actionErr.Action)
		assert.NotEmpty(t, logger.warnCalls)
	})

	t.Run("handler error becomes InvocationError", func(t *testing.T) {
		_, err := reg.Call(context.Background(), "fail", nil)
		assert.ErrorIs(t, err, ErrInvocation)
		assert.ErrorIs(t, err, errDomain)

		var inv *InvocationError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, "fail", inv.Action)
		assert.False(t, inv.Panicked)
	})

	t.Run("handler panic becomes InvocationError", func(t *testing.T) {
		got, err := reg.Call(context.Background(), "explode", nil)
		assert.Nil(t, got)

		var inv *InvocationError
		require.ErrorAs(t, err, &inv)
		assert.True(t, inv.Panicked)
		assert.Contains(t, err.Error(), "handler bug")
		assert.NotEmpty(t, logger.errorCalls)
	})
}

func TestWrapInvocation_DoesNotStack(t *testing.T) {
	inner := &InvocationError{Action: "inner", Err: errors.New("x")}
	err := wrapInvocation("outer", inner)
	assert.Same(t, inner, err)
}
