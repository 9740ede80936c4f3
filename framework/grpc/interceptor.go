package scopedgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	scopedauth "github.com/auth0/go-scoped-auth"
	"github.com/auth0/go-scoped-auth/authctx"
	"github.com/auth0/go-scoped-auth/token"
)

// Interceptor runs gRPC handlers inside the request scope of a
// scopedauth.Middleware.
type Interceptor struct {
	middleware       *scopedauth.Middleware
	tokenExtractor   TokenExtractor
	exclusionChecker func(method string) bool
	errorHandler     func(ctx context.Context, err error) error
}

// New creates an Interceptor around m. Tokens are read with
// BearerMetadataExtractor unless WithTokenExtractor says otherwise.
func New(m *scopedauth.Middleware, opts ...Option) *Interceptor {
	i := &Interceptor{
		middleware:     m,
		tokenExtractor: BearerMetadataExtractor,
		errorHandler:   defaultGRPCErrorHandler,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// run scopes handler. Failures raised before handler is entered go through
// the error handler; the handler's own error is returned unchanged.
func (i *Interceptor) run(ctx context.Context, method string, handler func(ctx context.Context) error) error {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		return handler(ctx)
	}

	entered := false
	err := i.middleware.Run(ctx, i.tokenExtractor(ctx), func(ctx context.Context) error {
		entered = true
		return handler(ctx)
	})
	if err != nil && !entered {
		return i.errorHandler(ctx, err)
	}
	return err
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that scopes
// every unary call.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var resp any
		err := i.run(ctx, info.FullMethod, func(ctx context.Context) error {
			var err error
			resp, err = handler(ctx, req)
			return err
		})
		return resp, err
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that scopes
// every stream for its whole lifetime.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return i.run(ss.Context(), info.FullMethod, func(ctx context.Context) error {
			return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
		})
	}
}

// RequireActor returns the actor of the current scope, or an Unauthenticated
// status error when the call is anonymous or its token resolved to no actor.
//
// Example usage:
//
//	func (s *server) Profile(ctx context.Context, req *pb.Request) (*pb.Response, error) {
//		actor, err := scopedgrpc.RequireActor(ctx)
//		if err != nil {
//			return nil, err
//		}
//		...
//	}
func RequireActor(ctx context.Context) (authctx.Actor, error) {
	ac, ok := authctx.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication is required")
	}
	tok, actor := ac.Snapshot()
	if tok == nil || actor == nil {
		return nil, status.Error(codes.Unauthenticated, "authentication is required")
	}
	return actor, nil
}

// defaultGRPCErrorHandler maps middleware failures to status codes.
func defaultGRPCErrorHandler(_ context.Context, err error) error {
	switch {
	case errors.Is(err, scopedauth.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, scopedauth.Message(err))
	case errors.Is(err, token.ErrStorageFailure):
		return status.Error(codes.Unavailable, scopedauth.Message(err))
	default:
		return status.Error(codes.Internal, scopedauth.Message(err))
	}
}

// wrappedServerStream is a wrapper around grpc.ServerStream that allows modifying
// the context returned by Context().
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the scoped context of the stream.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
