package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/crypto/hkdf"

	"github.com/dmitrymomot/routekit/core/handler"
)

// CSRFHookName is the pipeline name of the CSRF hook.
const CSRFHookName = "csrf"

var (
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	ErrCSRFTokenInvalid = errors.New("csrf token invalid")
	ErrCSRFSecretShort  = errors.New("csrf secret must be at least 32 bytes")
)

// CSRFVerifier decides whether token is valid for req.
type CSRFVerifier func(req *handler.Request, token string) bool

// CSRFConfig configures the CSRF hook.
type CSRFConfig struct {
	// HeaderName is checked first (default: "X-CSRF-Token").
	HeaderName string
	// FormField is checked when the header is absent (default: "csrf_token").
	FormField string
}

// CSRF returns a before hook that rejects unsafe requests whose token is
// missing or fails verify with 403. GET, HEAD, OPTIONS and TRACE pass.
func CSRF(verify CSRFVerifier) handler.Hook {
	return CSRFWithConfig(verify, CSRFConfig{})
}

// CSRFWithConfig is CSRF with custom token locations.
func CSRFWithConfig(verify CSRFVerifier, cfg CSRFConfig) handler.Hook {
	if verify == nil {
		panic("csrf middleware: verifier is required")
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-CSRF-Token"
	}
	if cfg.FormField == "" {
		cfg.FormField = "csrf_token"
	}

	return handler.Hook{
		Name:  CSRFHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			switch req.Method() {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return handler.Continue, nil
			}
			token := req.Header(cfg.HeaderName)
			if token == "" {
				form, err := req.Form()
				if err != nil {
					return handler.Halt, handler.AbortWith(formStatus(err), err)
				}
				token = form.Get(cfg.FormField)
			}
			if token == "" {
				return handler.Halt, handler.AbortWith(http.StatusForbidden, ErrCSRFTokenMissing)
			}
			if !verify(req, token) {
				return handler.Halt, handler.AbortWith(http.StatusForbidden, ErrCSRFTokenInvalid)
			}
			return handler.Continue, nil
		},
	}
}

func formStatus(err error) int {
	if errors.Is(err, handler.ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// CSRFTokens issues and checks tokens bound to a session id.
// A token is a random nonce followed by an HMAC-SHA256 of the session id and
// nonce, base64url encoded.
type CSRFTokens struct {
	key []byte
}

const csrfNonceSize = 16

// NewCSRFTokens derives a signing key from secret with HKDF-SHA256.
func NewCSRFTokens(secret []byte) (*CSRFTokens, error) {
	if len(secret) < 32 {
		return nil, ErrCSRFSecretShort
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte("routekit csrf v1")), key); err != nil {
		return nil, fmt.Errorf("derive csrf key: %w", err)
	}
	return &CSRFTokens{key: key}, nil
}

// Issue returns a new token for sessionID.
func (t *CSRFTokens) Issue(sessionID string) (string, error) {
	nonce := make([]byte, csrfNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate csrf nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(append(nonce, t.sign(sessionID, nonce)...)), nil
}

// Valid reports whether token was issued for sessionID.
func (t *CSRFTokens) Valid(sessionID, token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != csrfNonceSize+sha256.Size {
		return false
	}
	nonce, mac := raw[:csrfNonceSize], raw[csrfNonceSize:]
	return hmac.Equal(mac, t.sign(sessionID, nonce))
}

// Verifier checks tokens against the session id set by the Session hook.
func (t *CSRFTokens) Verifier() CSRFVerifier {
	return func(req *handler.Request, token string) bool {
		sid, ok := SessionID(req)
		return ok && t.Valid(sid, token)
	}
}

func (t *CSRFTokens) sign(sessionID string, nonce []byte) []byte {
	m := hmac.New(sha256.New, t.key)
	m.Write(nonce)
	m.Write([]byte(sessionID))
	return m.Sum(nil)
}
