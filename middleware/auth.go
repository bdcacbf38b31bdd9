package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
)

// AuthHookName is the pipeline name of the authentication hook.
const AuthHookName = "auth"

// ErrUnauthenticated is returned by authenticators that find no credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the identity behind a request.
type Authenticator interface {
	Authenticate(req *handler.Request) (any, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(req *handler.Request) (any, error)

func (f AuthenticatorFunc) Authenticate(req *handler.Request) (any, error) { return f(req) }

// Authenticate returns a before hook that stores the authenticated identity
// on the request and rejects the request with 401 otherwise.
func Authenticate(a Authenticator) handler.Hook {
	return authHook(a, false)
}

// AuthenticateOptional is like Authenticate but lets anonymous requests through.
func AuthenticateOptional(a Authenticator) handler.Hook {
	return authHook(a, true)
}

func authHook(a Authenticator, optional bool) handler.Hook {
	if a == nil {
		panic("auth middleware: authenticator is required")
	}
	return handler.Hook{
		Name:  AuthHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			identity, err := a.Authenticate(req)
			if err == nil && identity != nil {
				req.SetIdentity(identity)
				return handler.Continue, nil
			}
			if optional {
				return handler.Continue, nil
			}
			if err == nil {
				err = ErrUnauthenticated
			}
			var explicit interface{ StatusCode() int }
			if errors.As(err, &explicit) {
				return handler.Halt, err
			}
			return handler.Halt, handler.AbortWith(http.StatusUnauthorized, err)
		},
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(req *handler.Request) (string, bool) {
	scheme, token, ok := strings.Cut(req.Header("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuth authenticates requests by passing the bearer token to lookup.
func BearerAuth(lookup func(req *handler.Request, token string) (any, error)) Authenticator {
	return AuthenticatorFunc(func(req *handler.Request) (any, error) {
		token, ok := BearerToken(req)
		if !ok {
			return nil, ErrUnauthenticated
		}
		return lookup(req, token)
	})
}
