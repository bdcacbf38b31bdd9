// Package health provides route handlers for service health probes.
//
//	app.Get("/health/live", health.Liveness).ExcludeAll()
//	app.Get("/health/ready", health.Readiness(log,
//		health.Check("postgres", pg.Healthcheck(pool)),
//		health.Check("redis", redis.Healthcheck(client)),
//	)).ExcludeAll()
//	app.Get("/ping", health.NoContent).ExcludeAll()
//
// Readiness answers 503 as soon as one check fails and names the failing
// dependency in the log, never in the response.
package health
