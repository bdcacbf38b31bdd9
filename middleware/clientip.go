package middleware

import (
	"net"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
)

// ClientIPHookName is the pipeline name of the client ip hook.
const ClientIPHookName = "client_ip"

type clientIPKey struct{}

// ClientIP stores the client address on the request, preferring proxy
// headers over the socket peer address.
func ClientIP() handler.Hook {
	return handler.Hook{
		Name:  ClientIPHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			req.Set(clientIPKey{}, ExtractClientIP(req))
			return handler.Continue, nil
		},
	}
}

// GetClientIP returns the address stored by the client ip hook.
func GetClientIP(req *handler.Request) (string, bool) {
	return handler.Attr[string](req, clientIPKey{})
}

// ExtractClientIP reads CF-Connecting-IP, the first X-Forwarded-For entry and
// X-Real-IP in that order, then falls back to the remote address.
func ExtractClientIP(req *handler.Request) string {
	if ip := validIP(req.Header("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := req.Header("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := validIP(first); ip != "" {
			return ip
		}
	}
	if ip := validIP(req.Header("X-Real-IP")); ip != "" {
		return ip
	}

	addr := req.Raw().RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func validIP(s string) string {
	s = strings.TrimSpace(s)
	if net.ParseIP(s) == nil {
		return ""
	}
	return s
}
