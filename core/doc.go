/*
Package core provides the framework-agnostic action dispatcher used as the
universal entry point for any subsystem that wants interception
(authorization, metrics, caching, retries) without modifying the handlers.

# Architecture

	┌─────────────────────────────────────────────┐
	│   Chain (interceptors, outermost first)     │
	│   logging → metrics → authz → retry → ...   │
	└────────────────┬────────────────────────────┘
	                 │ next(ctx, action, params)
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Registry (THIS PACKAGE)            │
	│  • action name → Handler                    │
	│  • ActionNotFound / InvocationError         │
	└─────────────────────────────────────────────┘

# Basic Usage

	reg, err := core.New()
	if err != nil {
	    log.Fatal(err)
	}
	_ = reg.RegisterFunc("greet", func(ctx context.Context, p core.Params) (any, error) {
	    return "hello " + p["name"].(string), nil
	})

	chain, err := core.NewChain(reg,
	    scopedauth.LoggingInterceptor(logger),
	    scopedauth.RequireActor(),
	)
	if err != nil {
	    log.Fatal(err)
	}

	out, err := chain.Call(ctx, "greet", core.Params{"name": "world"})

# Composition

NewChain builds the nested closures once. Interceptor i receives a Next that
invokes interceptor i+1, and the last Next calls the wrapped Core. Because a
*Chain is a Core, a chain can wrap another chain.

An interceptor may call next zero times (cached result, denial), once, or
several times (retry); nothing in the chain assumes exactly-once delivery.

# Errors

	errors.Is(err, core.ErrActionNotFound) // unknown action
	errors.Is(err, core.ErrInvocation)     // handler or interceptor failed

InvocationError unwraps to the handler's own error, so domain errors remain
matchable through the wrapper.
*/
package core
