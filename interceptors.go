package scopedauth

import (
	"context"
	"time"

	"github.com/auth0/go-scoped-auth/authctx"
	"github.com/auth0/go-scoped-auth/core"
)

// LoggingInterceptor logs every action call and its outcome.
func LoggingInterceptor(logger Logger) core.Interceptor {
	return core.InterceptorFunc(func(ctx context.Context, action string, params core.Params, next core.Next) (any, error) {
		start := time.Now()
		logger.Debug("action started", "action", action)

		result, err := next(ctx, action, params)
		if err != nil {
			logger.Warn("action failed",
				"action", action,
				"duration", time.Since(start),
				"error", err)
			return result, err
		}
		logger.Debug("action finished", "action", action, "duration", time.Since(start))
		return result, nil
	})
}

// MetricsInterceptor counts action calls by outcome and records their
// latency.
func MetricsInterceptor(metrics Metrics) core.Interceptor {
	return core.InterceptorFunc(func(ctx context.Context, action string, params core.Params, next core.Next) (any, error) {
		start := time.Now()
		result, err := next(ctx, action, params)

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.IncCounter(MetricActionsTotal, map[string]string{"action": action, "outcome": outcome})
		metrics.ObserveHistogram(MetricActionDuration, time.Since(start).Seconds(), map[string]string{"action": action})
		return result, err
	})
}

// TracingInterceptor wraps each action call in a span.
func TracingInterceptor(tracer Tracer) core.Interceptor {
	return core.InterceptorFunc(func(ctx context.Context, action string, params core.Params, next core.Next) (any, error) {
		ctx, span := tracer.StartSpan(ctx, "scopedauth.action")
		defer span.Finish()
		span.SetTag("scopedauth.action", action)

		result, err := next(ctx, action, params)
		span.RecordError(err)
		return result, err
	})
}

// RequireActor short-circuits with ErrUnauthenticated unless the current
// scope holds a token with a resolved actor. The wrapped core never runs for
// anonymous calls, nor for tokens the resolver mapped to no actor.
func RequireActor() core.Interceptor {
	return core.InterceptorFunc(func(ctx context.Context, action string, params core.Params, next core.Next) (any, error) {
		ac, ok := authctx.FromContext(ctx)
		if !ok {
			return nil, ErrUnauthenticated
		}
		if tok, actor := ac.Snapshot(); tok == nil || actor == nil {
			return nil, ErrUnauthenticated
		}
		return next(ctx, action, params)
	})
}
