// Package scopedgrpc provides gRPC server interceptors that run every call
// inside a scopedauth request scope.
//
// Token ids are read from incoming metadata, by default from
// "authorization: Bearer <id>". Calls without a credential, or with one
// that does not resolve, run anonymously; the interceptors never reject a
// call for lack of credentials. Use RequireActor inside handlers that need
// one.
//
// # Basic Usage
//
//	m, err := scopedauth.New(
//	    scopedauth.WithStore(store),
//	    scopedauth.WithActorResolver(resolver),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	interceptor := scopedgrpc.New(m,
//	    scopedgrpc.WithExcludedMethods([]string{"/grpc.health.v1.Health/Check"}),
//	)
//
//	srv := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// # Errors
//
// Failures that happen before the handler runs, such as an unreachable token
// store, are mapped to status errors: storage failures become Unavailable,
// everything else Internal. Override the mapping with WithErrorHandler.
// Errors returned by the handler itself are passed through unchanged.
package scopedgrpc
