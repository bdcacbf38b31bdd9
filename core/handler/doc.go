// Package handler defines the per-request types shared by the router, its
// hooks and application handlers.
//
// # Core Types
//
//	// Handler invoked for a matched route
//	type HandlerFunc func(req *Request, res *Response) error
//
//	// Named before/after pipeline step
//	type HookFunc func(req *Request, res *Response) (Action, error)
//
//	// Fallback renderer selected by status code
//	type ErrorHandlerFunc func(req *Request, res *Response, err error)
//
// # Request
//
// Request wraps *http.Request together with the normalized path, the matched
// route and the converted path parameters. It is read-only after construction
// apart from an attribute store that hooks use to hand data forward, for
// example the authenticated identity:
//
//	app.Before("auth", func(req *handler.Request, res *handler.Response) (handler.Action, error) {
//		user, err := authenticate(req)
//		if err != nil {
//			return handler.Halt, handler.Abort(http.StatusUnauthorized)
//		}
//		req.SetIdentity(user)
//		return handler.Continue, nil
//	})
//
// Request also implements context.Context, so it can be passed directly to
// storage and rendering collaborators.
//
// # Response
//
// Response is a builder: status defaults to 200, headers and body accumulate
// in memory and Finalize writes them to the client exactly once. Because the
// Response implements http.ResponseWriter, standard handlers can be adapted
// with Wrap.
//
// # Aborting
//
// Returning an *HTTPError (see Abort) from a handler or hook selects the
// response status; the router renders it through its error registry. Any
// other error maps to 500 and its text is never sent to the client.
//
//	func show(req *handler.Request, res *handler.Response) error {
//		id, _ := req.ParamInt("id")
//		item, ok := items[id]
//		if !ok {
//			return handler.Abort(http.StatusNotFound, "item not found")
//		}
//		return res.JSON(http.StatusOK, item)
//	}
package handler
