package scopedauth

import (
	"errors"
	"net/http"

	"github.com/auth0/go-scoped-auth/authctx"
	"github.com/auth0/go-scoped-auth/scope"
	"github.com/auth0/go-scoped-auth/token"
)

// Option configures the Middleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// WithStore sets the token store used to resolve credentials (REQUIRED).
func WithStore(s token.Store) Option {
	return func(m *Middleware) error {
		if s == nil {
			return ErrStoreNil
		}
		m.store = s
		return nil
	}
}

// WithTransports sets the transports in priority order. The first transport
// that finds a token id wins.
//
// Default: a single BearerTransport
func WithTransports(ts ...Transport) Option {
	return func(m *Middleware) error {
		if len(ts) == 0 {
			return ErrTransportsEmpty
		}
		for _, t := range ts {
			if t == nil {
				return ErrTransportNil
			}
		}
		m.transports = append(Transports(nil), ts...)
		return nil
	}
}

// WithActorResolver sets the collaborator that turns a token into an actor.
// Without one, authenticated scopes carry a token and a nil actor.
func WithActorResolver(r authctx.ActorResolver) Option {
	return func(m *Middleware) error {
		if r == nil {
			return ErrActorResolverNil
		}
		m.resolver = r
		return nil
	}
}

// WithContainer sets the dependency container expected to run request
// scopes. A container implementing scope.Runner is used directly. Any other
// container is rejected with a scope.ConfigurationError unless the execution
// model is scope.ProcessPerRequest.
//
// Default: scope.ContextRunner
func WithContainer(container any) Option {
	return func(m *Middleware) error {
		m.container = container
		return nil
	}
}

// WithExecutionModel declares how the host process serves requests.
//
// Default: scope.Persistent
func WithExecutionModel(model scope.Model) Option {
	return func(m *Middleware) error {
		m.model = model
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests have their credential
// resolved.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when a request cannot be scoped.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithExclusionUrls configures URL patterns that bypass credential
// resolution. URLs can be full URLs or just paths.
func WithExclusionUrls(exclusions []string) Option {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithClock sets the time source used by Login to compute expiry.
//
// Default: token.SystemClock
func WithClock(c token.Clock) Option {
	return func(m *Middleware) error {
		if c == nil {
			return ErrClockNil
		}
		m.clock = c
		return nil
	}
}

// WithLogger sets an optional logger for the middleware.
//
// The logger interface is compatible with log/slog.Logger and similar loggers.
//
// Example:
//
//	m, err := scopedauth.New(
//	    scopedauth.WithStore(store),
//	    scopedauth.WithLogger(slog.Default()),
//	)
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer used for the request span.
//
// Default: NoopTracer
func WithTracer(tracer Tracer) Option {
	return func(m *Middleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrStoreNil           = errors.New("token store cannot be nil (use WithStore)")
	ErrTransportsEmpty    = errors.New("transports list cannot be empty")
	ErrTransportNil       = errors.New("transport cannot be nil")
	ErrActorResolverNil   = errors.New("actor resolver cannot be nil")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrExclusionUrlsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrClockNil           = errors.New("clock cannot be nil")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
	ErrTracerNil          = errors.New("tracer cannot be nil")
)
