package core

import "errors"

// Option is a function that configures the Registry.
// Options return errors to enable validation during construction.
type Option func(*Registry) error

// New creates a new, empty Registry.
//
// Example:
//
//	reg, err := core.New(core.WithLogger(slog.Default()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = reg.RegisterFunc("ping", func(ctx context.Context, p core.Params) (any, error) {
//	    return "pong", nil
//	})
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// WithLogger sets an optional logger for the Registry.
//
// When configured, the Registry logs unknown actions, handler failures and
// call durations.
func WithLogger(logger Logger) Option {
	return func(r *Registry) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithHandlers registers every entry of handlers.
func WithHandlers(handlers map[string]Handler) Option {
	return func(r *Registry) error {
		for name, h := range handlers {
			if err := r.Register(name, h); err != nil {
				return err
			}
		}
		return nil
	}
}
