package scopedgrpc

import (
	"context"
)

// Option defines a functional option for configuring the gRPC adapter.
type Option func(*Interceptor)

// WithTokenExtractor sets how token ids are read from incoming metadata.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) {
		if extractor != nil {
			i.tokenExtractor = extractor
		}
	}
}

// WithErrorHandler sets a custom gRPC error handler.
func WithErrorHandler(handler func(ctx context.Context, err error) error) Option {
	return func(i *Interceptor) {
		if handler != nil {
			i.errorHandler = handler
		}
	}
}

// WithExcludedMethods allows configuring a list of gRPC methods that run
// without a request scope.
func WithExcludedMethods(methods []string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return func(i *Interceptor) {
		i.exclusionChecker = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
	}
}

// WithExclusionChecker allows configuring a custom exclusion checker for gRPC methods.
func WithExclusionChecker(checker func(string) bool) Option {
	return func(i *Interceptor) {
		i.exclusionChecker = checker
	}
}
