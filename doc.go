/*
Package scopedauth provides request-scoped authentication for long-lived Go
servers.

A Go server serves many requests from one process, so authentication state
must never live in a package-level variable. The Middleware resolves the
credential of each request and runs the rest of the request inside a scope
that binds a fresh authctx.AuthContext to the request context. The binding is
removed, and the AuthContext closed, when the request returns, fails or
panics.

# Quick Start

	store := token.NewMemoryStore()

	cookie, err := scopedauth.NewCookieTransport("token")
	if err != nil {
	    log.Fatal(err)
	}

	m, err := scopedauth.New(
	    scopedauth.WithStore(store),
	    scopedauth.WithTransports(cookie, scopedauth.NewHeaderTransport("X-Auth-Token")),
	    scopedauth.WithActorResolver(authctx.ActorResolverFunc(loadUser)),
	)
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/api/", m.Handler(apiHandler))

# Accessing the Actor

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    user, ok := authctx.GetActor[*User](r.Context())
	    if !ok {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", user.Name)
	}

# Transports

A Transport extracts a token id from a request and writes one to a response:

  - CookieTransport: a cookie with Path, Secure, HttpOnly and SameSite set;
    Expires is only written for expiring tokens
  - HeaderTransport: the raw id in a named header such as X-Auth-Token
  - BearerTransport: "Authorization: Bearer <id>" on requests

Transports are tried in the order given to WithTransports and the first hit
wins. The middleware never writes credentials itself. Login and Logout do,
through the transport that carried the request's credential.

# Credentials That Do Not Resolve

An unknown or expired token is not an error: the request continues with an
anonymous AuthContext. Only storage failures (token.ErrStorageFailure) stop
the request, through the ErrorHandler.

# Execution Model

By default scopes are frames on the request context (scope.ContextRunner).
WithContainer accepts a dependency container; if it cannot run scopes, New
fails with a scope.ConfigurationError unless WithExecutionModel declares
scope.ProcessPerRequest.

# Action Dispatch

Built-in interceptors compose with core.NewChain:

	chain, err := core.NewChain(registry,
	    scopedauth.LoggingInterceptor(logger),
	    scopedauth.MetricsInterceptor(metrics),
	    scopedauth.RequireActor(),
	)

ActionHandler exposes any core.Core over HTTP.

# Error Boundary

Recoverer turns panics into ErrorHandler calls and answers a failure raised
while the ErrorHandler is already running with a bare 500.

	srv := &http.Server{Handler: scopedauth.NewRecoverer(nil, logger).Wrap(mux)}

# Framework Adapters

  - framework/gin: gin.HandlerFunc
  - framework/echo: echo.MiddlewareFunc
  - framework/grpc: unary and stream server interceptors
*/
package scopedauth
