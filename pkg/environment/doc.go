// Package environment propagates the deployment environment (development,
// staging, production) through context.Context and structured logs.
//
// The HTTP error handler consults IsProduction to decide whether internal
// error details may be echoed to the client.
//
//	env := environment.Parse(cfg.Env)
//	r.Use(environment.Middleware(env))
//
//	if environment.IsProduction(ctx) {
//	    // hide internals
//	}
package environment
