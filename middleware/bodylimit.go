package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/routekit/core/handler"
)

// BodyLimitHookName is the pipeline name of the body limit hook.
const BodyLimitHookName = "body_limit"

// BodyLimit rejects requests that declare a Content-Length above limit with 413
// and caps what Request.Body will read for the rest.
func BodyLimit(limit int64) handler.Hook {
	if limit <= 0 {
		limit = handler.DefaultMaxBodySize
	}
	return handler.Hook{
		Name:  BodyLimitHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			req.SetMaxBodySize(limit)
			if n := req.Raw().ContentLength; n > limit {
				return handler.Halt, handler.AbortWith(http.StatusRequestEntityTooLarge,
					fmt.Errorf("%w: %d > %d bytes", handler.ErrBodyTooLarge, n, limit))
			}
			return handler.Continue, nil
		},
	}
}
