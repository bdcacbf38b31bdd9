// Package router implements route matching and request dispatch.
//
// An App is the build-phase object: routes, blueprints, named hooks and error
// handlers are registered on it, then Build compiles everything into a
// read-only Dispatcher that serves requests. Registration after Build panics
// with ErrSealed, so the route table, pipeline and error registry never change
// while requests are in flight.
//
// # Routes
//
//	app := router.New(router.WithLogger(log))
//	app.Get("/users/<id:int>", showUser)
//	app.AddRoute("/resources", []string{"GET", "POST", "PUT", "DELETE"}, resources)
//
//	d, err := app.Build()
//	if err != nil {
//		return err // every compile and registration error, joined
//	}
//	http.ListenAndServe(":8080", d)
//
// # Matching
//
// At each path position literal segments are tried before parameters, and
// parameters before a trailing path capture; among parameters the first
// registered converter wins. A converter rejection backtracks to the next
// candidate at that position. If some route matches the path but none allows
// the method, the response is 405 with an Allow header listing the union of
// methods of all matching routes; otherwise it is 404.
//
// # Blueprints
//
// A Blueprint groups routes under a prefix. Blueprints nest; names are
// qualified ("admin.users") and hooks registered on a blueprint only run for
// its routes and those of its children.
//
//	admin := router.NewBlueprint("admin", "/admin")
//	admin.Before("admin-only", requireAdmin)
//	admin.Get("/dashboard", dashboard).Name("dashboard")
//	app.RegisterBlueprint(admin) // GET /admin/dashboard, named "admin.dashboard"
//
// # Hooks
//
// Hooks are named and run in registration order, before or after the handler.
// Returning handler.Halt from a before hook skips the remaining before hooks,
// the handler and all after hooks; the response built so far is sent as is.
// Routes opt out with Exclude or ExcludeAll:
//
//	app.Before("csrf", csrfCheck)
//	app.Post("/webhooks/<provider>", webhook).Exclude("csrf")
//
// # Errors
//
// Any error returned or panic raised by a hook or handler is caught by the
// Dispatcher, logged, and rendered by the ErrorRegistry handler for the
// error's status (500 unless the error carries one, see handler.Abort).
// The partial response is discarded first. With WithHandlerTimeout, a handler
// still running at the deadline is abandoned and the request gets 503.
package router
