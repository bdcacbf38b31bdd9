// Package middleware provides stock pipeline hooks for the router.
//
// Every constructor returns handler.Hook values ready for App.Use or
// Blueprint.Use. Hook names are stable so routes can opt out with
// Endpoint.Exclude:
//
//	app.Use(middleware.RequestID())
//	app.Use(middleware.Logging(log)...)
//	app.Use(middleware.SecurityHeaders(middleware.BalancedSecurity))
//	app.Post("/webhook", h).Exclude(middleware.CSRFHookName)
//
// Before hooks that reject a request return a handler.HTTPError, so the
// response is rendered by the error registry like any other failure.
package middleware
