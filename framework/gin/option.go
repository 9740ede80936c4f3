package scopedgin

import (
	"github.com/gin-gonic/gin"
)

// Option defines a functional option for configuring the middleware
type Option func(*ginMiddlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware. The
// handler is expected to abort c.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *ginMiddlewareConfig) {
		if handler != nil {
			config.errorHandler = handler
		}
	}
}
