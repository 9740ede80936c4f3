package scopedecho

import (
	"context"

	"github.com/labstack/echo/v4"

	scopedauth "github.com/auth0/go-scoped-auth"
	"github.com/auth0/go-scoped-auth/authctx"
)

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
}

// New returns an echo middleware that runs the next handler inside the
// request scope of m. The error returned by the next handler is passed
// through unchanged, after the scope has been torn down.
func New(m *scopedauth.Middleware, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if m.ShouldSkip(req) {
				return next(c)
			}

			id := m.Transports().FetchToken(req)
			entered := false
			err := m.Run(req.Context(), id, func(ctx context.Context) error {
				entered = true
				c.SetRequest(req.WithContext(ctx))
				return next(c)
			})
			if err != nil && !entered {
				return config.errorHandler(c, err)
			}
			return err
		}
	}
}

func defaultEchoErrorHandler(_ echo.Context, err error) error {
	return echo.NewHTTPError(scopedauth.StatusCode(err), scopedauth.Message(err)).SetInternal(err)
}

// AuthContext returns the AuthContext of the request scope of c.
func AuthContext(c echo.Context) (*authctx.AuthContext, bool) {
	return authctx.FromContext(c.Request().Context())
}

// Actor returns the actor of the request scope of c asserted to T.
func Actor[T any](c echo.Context) (T, bool) {
	return authctx.GetActor[T](c.Request().Context())
}
