package scope

import (
	"context"
	"fmt"
)

// Model describes how the host process serves requests.
type Model int

const (
	// Persistent is a long-lived process serving many requests from shared
	// memory. True scoping is mandatory.
	Persistent Model = iota

	// ProcessPerRequest is a process that exits after a single request.
	// Nothing outlives the request, so scoping may be skipped.
	ProcessPerRequest
)

// String returns the model name used in configuration.
func (m Model) String() string {
	switch m {
	case Persistent:
		return "persistent"
	case ProcessPerRequest:
		return "process-per-request"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// ParseModel parses a configuration value. The empty string is Persistent.
func ParseModel(s string) (Model, error) {
	switch s {
	case "", "persistent":
		return Persistent, nil
	case "process-per-request":
		return ProcessPerRequest, nil
	default:
		return Persistent, fmt.Errorf("unknown execution model %q", s)
	}
}

// ContextRunner establishes true scopes by pushing a frame onto the
// callback's context and closing it when the callback exits.
type ContextRunner struct{}

var _ Runner = ContextRunner{}

// RunScope runs fn with b visible to Lookup on the context it receives. The
// scope is closed before RunScope returns or a panic from fn propagates.
func (ContextRunner) RunScope(ctx context.Context, b Bindings, fn func(ctx context.Context) error) error {
	parent, _ := ctx.Value(frameKey{}).(*frame)

	f := &frame{parent: parent, bindings: make(Bindings, len(b))}
	for k, v := range b {
		f.bindings[k] = v
	}
	defer f.closed.Store(true)

	return fn(context.WithValue(ctx, frameKey{}, f))
}

// DirectRunner calls fn without establishing any binding. It is only safe
// when every request runs in its own short-lived process; construct it with
// NewDirectRunner so that precondition is checked.
type DirectRunner struct{}

var _ Runner = DirectRunner{}

// NewDirectRunner returns a DirectRunner, refusing to do so under a
// persistent model.
func NewDirectRunner(model Model) (DirectRunner, error) {
	if model != ProcessPerRequest {
		return DirectRunner{}, NewConfigurationError(
			"direct execution without scoping is only permitted in the process-per-request model, not " + model.String())
	}
	return DirectRunner{}, nil
}

// RunScope calls fn with ctx unchanged.
func (DirectRunner) RunScope(ctx context.Context, _ Bindings, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Resolve selects the Runner for a dependency container. It is meant to be
// called once at configuration time:
//   - a nil container yields ContextRunner;
//   - a container implementing Runner is used as is;
//   - any other container has no scoping capability, which is a
//     ConfigurationError under Persistent and a DirectRunner under
//     ProcessPerRequest.
func Resolve(container any, model Model, logger Logger) (Runner, error) {
	if container == nil {
		return ContextRunner{}, nil
	}
	if r, ok := container.(Runner); ok {
		return r, nil
	}

	if model != ProcessPerRequest {
		return nil, NewConfigurationError(fmt.Sprintf(
			"container %T cannot run scopes and the execution model is %s", container, model))
	}

	if logger != nil {
		logger.Warn("container cannot run scopes, calling handlers without bindings",
			"container", fmt.Sprintf("%T", container),
			"model", model.String())
	}
	return NewDirectRunner(model)
}
