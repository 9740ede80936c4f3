package scopedauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/auth0/go-scoped-auth/authctx"
	"github.com/auth0/go-scoped-auth/scope"
	"github.com/auth0/go-scoped-auth/token"
)

// Request outcomes recorded under MetricRequestsTotal.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeAnonymous     = "anonymous"
	OutcomeError         = "error"
	OutcomeSkipped       = "skipped"
)

// Middleware resolves the credential of each request and runs the rest of
// the request inside a scope that binds a fresh AuthContext.
type Middleware struct {
	store               token.Store
	transports          Transports
	runner              scope.Runner
	resolver            authctx.ActorResolver
	errorHandler        ErrorHandler
	exclusionURLHandler ExclusionURLHandler
	validateOnOptions   bool
	clock               token.Clock
	logger              Logger
	metrics             Metrics
	tracer              Tracer

	// Temporary fields used during construction
	container any
	model     scope.Model
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should bypass credential resolution.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new Middleware instance with the supplied options.
// A token store is required; everything else has a default.
//
// Example:
//
//	m, err := scopedauth.New(
//	    scopedauth.WithStore(token.NewMemoryStore()),
//	    scopedauth.WithTransports(cookie, scopedauth.NewHeaderTransport("X-Auth-Token")),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//
// New fails with a scope.ConfigurationError when the configured container
// cannot run scopes and the execution model is scope.Persistent.
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		validateOnOptions: true,
		model:             scope.Persistent,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", err)
	}

	m.applyDefaults()

	runner, err := scope.Resolve(m.container, m.model, m.logger)
	if err != nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", err)
	}
	m.runner = runner
	m.container = nil

	return m, nil
}

func (m *Middleware) validate() error {
	if m.store == nil {
		return ErrStoreNil
	}
	return nil
}

func (m *Middleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if len(m.transports) == 0 {
		m.transports = Transports{BearerTransport{}}
	}
	if m.clock == nil {
		m.clock = token.SystemClock{}
	}
	if m.metrics == nil {
		m.metrics = NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = NoopTracer{}
	}
}

type preparedContextKey struct{}

// WithPreparedContext returns a copy of ctx carrying a caller-built
// AuthContext. The middleware uses it instead of constructing a fresh one and
// closes it when the request scope ends, like any other AuthContext.
func WithPreparedContext(ctx context.Context, ac *authctx.AuthContext) context.Context {
	return context.WithValue(ctx, preparedContextKey{}, ac)
}

func preparedContext(ctx context.Context) *authctx.AuthContext {
	ac, _ := ctx.Value(preparedContextKey{}).(*authctx.AuthContext)
	return ac
}

// Transports returns the configured transports in priority order.
func (m *Middleware) Transports() Transports {
	return m.transports
}

// Run resolves id and invokes fn inside a scope binding the request's
// AuthContext under authctx.Key. An empty id, an unknown id or an expired
// token all yield an anonymous scope. Storage failures and actor resolution
// failures are returned without calling fn.
//
// The scope is torn down and the AuthContext closed before Run returns,
// whether fn returns normally, returns an error or panics.
func (m *Middleware) Run(ctx context.Context, id string, fn func(ctx context.Context) error) (err error) {
	ctx, span := m.tracer.StartSpan(ctx, "scopedauth.request")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()

	var (
		tok   *token.Token
		actor authctx.Actor
	)
	if id != "" {
		tok, err = m.store.Load(ctx, id)
		if err != nil {
			if m.logger != nil {
				m.logger.Error("failed to load token", "error", err)
			}
			m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": OutcomeError})
			return err
		}
		if tok == nil && m.logger != nil {
			m.logger.Debug("presented token is unknown or expired, continuing anonymously")
		}
	}

	if tok != nil && m.resolver != nil {
		actor, err = m.resolver.ResolveActor(ctx, tok)
		if err != nil {
			if m.logger != nil {
				m.logger.Error("failed to resolve actor", "error", err)
			}
			m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": OutcomeError})
			return fmt.Errorf("resolving actor: %w", err)
		}
	}

	ac := preparedContext(ctx)
	if ac == nil {
		ac = authctx.New()
	} else {
		// The prepared instance belongs to this scope only; nested runs
		// build their own.
		ctx = context.WithValue(ctx, preparedContextKey{}, (*authctx.AuthContext)(nil))
	}
	defer ac.Close()

	outcome := OutcomeAnonymous
	if tok != nil {
		if err := ac.Start(tok, actor); err != nil {
			return err
		}
		outcome = OutcomeAuthenticated
		span.SetTag("scopedauth.subject", tok.Subject())
	}
	span.SetTag("scopedauth.outcome", outcome)
	m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": outcome})

	if m.logger != nil {
		m.logger.Debug("entering request scope", "outcome", outcome)
	}
	return m.runner.RunScope(ctx, scope.Bindings{authctx.Key: ac}, fn)
}

// Handler returns next wrapped by the middleware. Errors raised before next
// runs are passed to the ErrorHandler; errors raised after it ran are only
// logged. The middleware never writes the credential to the response; see
// Login and Logout.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.ShouldSkip(r) {
			next.ServeHTTP(w, r)
			return
		}

		if m.logger != nil {
			m.logger.Debug("extracting token from request",
				"method", r.Method,
				"path", r.URL.Path)
		}

		id := m.transports.FetchToken(r)
		entered := false
		err := m.Run(r.Context(), id, func(ctx context.Context) error {
			entered = true
			next.ServeHTTP(w, r.WithContext(ctx))
			return nil
		})
		if err == nil {
			return
		}
		if entered {
			// next owns the response by now.
			if m.logger != nil {
				m.logger.Error("request scope failed after the handler ran", "error", err)
			}
			return
		}
		m.errorHandler(w, r, err)
	})
}

// ShouldSkip reports whether r bypasses credential resolution, either through
// WithExclusionUrls or because it is an OPTIONS request and
// WithValidateOnOptions(false) was given.
func (m *Middleware) ShouldSkip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		if m.logger != nil {
			m.logger.Debug("skipping credential resolution for excluded URL",
				"method", r.Method,
				"path", r.URL.Path)
		}
		m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": OutcomeSkipped})
		return true
	}
	if !m.validateOnOptions && r.Method == http.MethodOptions {
		if m.logger != nil {
			m.logger.Debug("skipping credential resolution for OPTIONS request")
		}
		m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": OutcomeSkipped})
		return true
	}
	return false
}

// Login creates a token for payload and commits it through the transport
// that carried the request's credential, or the first configured transport.
// A ttl of zero or less creates a non-expiring token and a session-lifetime
// credential. When r runs inside a request scope, its AuthContext is re-armed
// with the new token so the rest of the request sees the logged-in actor.
func (m *Middleware) Login(w http.ResponseWriter, r *http.Request, payload token.Payload, ttl time.Duration) (*token.Token, error) {
	ctx := r.Context()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.clock.Now().Add(ttl)
	}

	tok, err := m.store.Create(ctx, payload, expiresAt)
	if err != nil {
		return nil, err
	}

	if ac, ok := authctx.FromContext(ctx); ok {
		var actor authctx.Actor
		if m.resolver != nil {
			actor, err = m.resolver.ResolveActor(ctx, tok)
			if err != nil {
				return nil, fmt.Errorf("resolving actor: %w", err)
			}
		}
		if err := ac.Start(tok, actor); err != nil {
			return nil, err
		}
	}

	m.transports.Select(r).CommitToken(w, r, tok.ID(), expiresAt)
	if m.logger != nil {
		m.logger.Info("token issued", "subject", tok.Subject())
	}
	return tok, nil
}

// Logout deletes the active token of the request scope, if any, tells the
// client to forget the credential and re-arms the AuthContext as anonymous.
func (m *Middleware) Logout(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	t := m.transports.Select(r)
	id := m.transports.FetchToken(r)

	if tok := authctx.TokenFromContext(ctx); tok != nil {
		if err := m.store.Delete(ctx, tok); err != nil {
			return err
		}
		id = tok.ID()
	}

	if ac, ok := authctx.FromContext(ctx); ok {
		_ = ac.Start(nil, nil)
	}

	t.RemoveToken(w, r, id)
	if m.logger != nil {
		m.logger.Info("token revoked")
	}
	return nil
}
