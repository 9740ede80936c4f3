package scopedgin

import (
	"context"

	"github.com/gin-gonic/gin"

	scopedauth "github.com/auth0/go-scoped-auth"
	"github.com/auth0/go-scoped-auth/authctx"
)

type ginMiddlewareConfig struct {
	errorHandler func(*gin.Context, error)
}

// New returns a gin middleware that runs the rest of the handler chain inside
// the request scope of m. Handlers read the identity from
// c.Request.Context(), for example with authctx.FromContext or Actor.
//
// Errors raised before the chain runs (storage failures, actor resolution
// failures) abort the request through the configured error handler. Errors
// and panics inside the chain are left to gin.
func New(m *scopedauth.Middleware, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{
		errorHandler: defaultGinErrorHandler,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		if m.ShouldSkip(c.Request) {
			c.Next()
			return
		}

		id := m.Transports().FetchToken(c.Request)
		entered := false
		err := m.Run(c.Request.Context(), id, func(ctx context.Context) error {
			entered = true
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return nil
		})
		if err != nil && !entered {
			config.errorHandler(c, err)
		}
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	c.AbortWithStatusJSON(scopedauth.StatusCode(err), gin.H{
		"message": scopedauth.Message(err),
	})
}

// AuthContext returns the AuthContext of the request scope of c.
func AuthContext(c *gin.Context) (*authctx.AuthContext, bool) {
	return authctx.FromContext(c.Request.Context())
}

// Actor returns the actor of the request scope of c asserted to T.
func Actor[T any](c *gin.Context) (T, bool) {
	return authctx.GetActor[T](c.Request.Context())
}
