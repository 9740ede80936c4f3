package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	scopedauth "github.com/auth0/go-scoped-auth"
	"github.com/auth0/go-scoped-auth/authctx"
	"github.com/auth0/go-scoped-auth/config"
	"github.com/auth0/go-scoped-auth/core"
	"github.com/auth0/go-scoped-auth/scope"
	"github.com/auth0/go-scoped-auth/token"
	"github.com/auth0/go-scoped-auth/token/jwtstore"
	"github.com/auth0/go-scoped-auth/token/pgstore"
	"github.com/auth0/go-scoped-auth/token/redisstore"
)

// server holds everything main needs to serve and shut down.
type server struct {
	handler    http.Handler
	closeStore func()
}

func newServer(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, reg *prometheus.Registry) (*server, error) {
	logger := scopedauth.NewLogrusLogger(log)

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	transports, err := buildTransports(cfg.Transport)
	if err != nil {
		closeStore()
		return nil, err
	}

	model, err := scope.ParseModel(cfg.Auth.ExecutionModel)
	if err != nil {
		closeStore()
		return nil, err
	}

	metrics := scopedauth.NewPrometheusMetrics(reg)
	tracer := scopedauth.NewOpenTelemetryTracer(otel.Tracer("scopedauthd"))

	opts := []scopedauth.Option{
		scopedauth.WithStore(store),
		scopedauth.WithTransports(transports...),
		scopedauth.WithActorResolver(authctx.ActorResolverFunc(resolveActor)),
		scopedauth.WithExecutionModel(model),
		scopedauth.WithLogger(logger),
		scopedauth.WithMetrics(metrics),
		scopedauth.WithTracer(tracer),
	}
	if len(cfg.Auth.ExcludedURLs) > 0 {
		opts = append(opts, scopedauth.WithExclusionUrls(cfg.Auth.ExcludedURLs))
	}

	m, err := scopedauth.New(opts...)
	if err != nil {
		closeStore()
		return nil, err
	}

	registry, err := core.New(core.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, err
	}
	if err := registerActions(registry); err != nil {
		closeStore()
		return nil, err
	}

	chain, err := core.NewChain(registry,
		scopedauth.LoggingInterceptor(logger),
		scopedauth.MetricsInterceptor(metrics),
		scopedauth.TracingInterceptor(tracer),
		scopedauth.RequireActor(),
	)
	if err != nil {
		closeStore()
		return nil, err
	}

	app := http.NewServeMux()
	app.Handle("POST /login", loginHandler(m, cfg.Auth))
	app.Handle("POST /logout", logoutHandler(m))
	app.Handle("POST /actions/{action}", scopedauth.ActionHandler(chain, nil))
	app.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	recoverer := scopedauth.NewRecoverer(nil, logger)

	root := http.NewServeMux()
	root.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	root.Handle("/", recoverer.Wrap(m.Handler(app)))

	return &server{handler: root, closeStore: closeStore}, nil
}

// resolveActor turns a token into the demo's actor, its subject claim.
func resolveActor(_ context.Context, tok *token.Token) (authctx.Actor, error) {
	if sub := tok.Subject(); sub != "" {
		return sub, nil
	}
	return nil, nil
}

func registerActions(r *core.Registry) error {
	if err := r.RegisterFunc("whoami", func(ctx context.Context, _ core.Params) (any, error) {
		name, _ := authctx.GetActor[string](ctx)
		return map[string]any{"subject": name}, nil
	}); err != nil {
		return err
	}
	return r.RegisterFunc("echo", func(_ context.Context, params core.Params) (any, error) {
		return params, nil
	})
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger scopedauth.Logger) (token.Store, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		s, err := redisstore.New(redisstore.Config{Client: client, KeyPrefix: cfg.Redis.KeyPrefix})
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		s, err := pgstore.NewWithLogger(ctx, pgstore.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case "jwt":
		s, err := jwtstore.New([]byte(cfg.JWT.Key), cfg.JWT.Issuer)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	default:
		return token.NewMemoryStore(), noop, nil
	}
}

func buildTransports(cfg config.TransportConfig) ([]scopedauth.Transport, error) {
	transports := make([]scopedauth.Transport, 0, len(cfg.Order))
	for _, name := range cfg.Order {
		switch name {
		case "cookie":
			opts := []scopedauth.CookieOption{
				scopedauth.WithCookieDomain(cfg.Cookie.Domain),
				scopedauth.WithCookieSecure(cfg.Cookie.Secure),
				scopedauth.WithCookieSameSite(sameSite(cfg.Cookie.SameSite)),
			}
			if cfg.Cookie.Path != "" {
				opts = append(opts, scopedauth.WithCookiePath(cfg.Cookie.Path))
			}
			t, err := scopedauth.NewCookieTransport(cfg.Cookie.Name, opts...)
			if err != nil {
				return nil, fmt.Errorf("cookie transport: %w", err)
			}
			transports = append(transports, t)
		case "header":
			transports = append(transports, scopedauth.NewHeaderTransport(cfg.Header.Name))
		case "bearer":
			transports = append(transports, scopedauth.BearerTransport{ResponseHeader: cfg.Header.Name})
		default:
			return nil, fmt.Errorf("unknown transport %q", name)
		}
	}
	return transports, nil
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type loginRequest struct {
	Subject string         `json:"subject"`
	Claims  map[string]any `json:"claims,omitempty"`
}

// loginHandler issues a token for the submitted subject. The demo does not
// check credentials.
func loginHandler(m *scopedauth.Middleware, cfg config.AuthConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "A subject is required."})
			return
		}

		payload := token.PayloadFromMap(req.Claims).With("sub", req.Subject)
		tok, err := m.Login(w, r, payload, cfg.TokenTTL)
		if err != nil {
			scopedauth.DefaultErrorHandler(w, r, err)
			return
		}

		resp := map[string]any{"token": tok.ID()}
		if exp, ok := tok.ExpiresAt(); ok {
			resp["expires_at"] = exp
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func logoutHandler(m *scopedauth.Middleware) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Logout(w, r); err != nil {
			scopedauth.DefaultErrorHandler(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
