package middleware

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/routekit/core/handler"
)

// RequestIDHookName is the pipeline name of the request id hook.
const RequestIDHookName = "request_id"

type requestIDKey struct{}

// RequestIDConfig configures the request id hook.
type RequestIDConfig struct {
	// HeaderName carries the id in both directions (default: "X-Request-ID").
	HeaderName string
	// Generator creates new ids (default: UUID v4).
	Generator func() string
	// UseExisting trusts an id sent by the client.
	UseExisting bool
}

// RequestID assigns a fresh UUID to every request.
func RequestID() handler.Hook {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig assigns an id to every request, stores it on the
// request and echoes it in the response header.
func RequestIDWithConfig(cfg RequestIDConfig) handler.Hook {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = uuid.NewString
	}

	return handler.Hook{
		Name:  RequestIDHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, res *handler.Response) (handler.Action, error) {
			var id string
			if cfg.UseExisting {
				id = req.Header(cfg.HeaderName)
			}
			if id == "" {
				id = cfg.Generator()
			}
			req.Set(requestIDKey{}, id)
			res.Header().Set(cfg.HeaderName, id)
			return handler.Continue, nil
		},
	}
}

// GetRequestID returns the id assigned by the request id hook.
func GetRequestID(req *handler.Request) (string, bool) {
	return handler.Attr[string](req, requestIDKey{})
}
