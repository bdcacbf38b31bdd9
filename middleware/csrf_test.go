package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/middleware"
)

func TestCSRF(t *testing.T) {
	t.Parallel()

	verify := func(_ *handler.Request, token string) bool { return token == "good" }
	d := mount(t, []handler.Hook{middleware.CSRF(verify)}, func(app *router.App) {
		app.Get("/form", ok)
		app.Post("/submit", ok)
		app.Post("/webhook", ok).Exclude(middleware.CSRFHookName)
	})

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{"safe method passes", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/form", nil)
		}, http.StatusOK},
		{"missing token", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/submit", nil)
		}, http.StatusForbidden},
		{"bad header token", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/submit", nil)
			r.Header.Set("X-CSRF-Token", "bad")
			return r
		}, http.StatusForbidden},
		{"good header token", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/submit", nil)
			r.Header.Set("X-CSRF-Token", "good")
			return r
		}, http.StatusOK},
		{"good form token", func() *http.Request {
			form := url.Values{"csrf_token": {"good"}}
			r := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return r
		}, http.StatusOK},
		{"excluded route", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/webhook", nil)
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.status, do(d, tt.req()).Code)
		})
	}
}

func TestCSRFFormTokenKeepsBodyReadable(t *testing.T) {
	t.Parallel()

	verify := func(_ *handler.Request, token string) bool { return token == "good" }
	d := mount(t, []handler.Hook{middleware.BodyLimit(32), middleware.CSRF(verify)}, func(app *router.App) {
		app.Post("/echo", func(req *handler.Request, res *handler.Response) error {
			b, err := req.Body()
			if err != nil {
				return err
			}
			res.Text(http.StatusOK, string(b))
			return nil
		})
	})

	post := func(payload string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/echo", io.NopCloser(strings.NewReader(payload)))
		r.ContentLength = -1
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r
	}

	w := do(d, post("csrf_token=good&name=Ada"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csrf_token=good&name=Ada", body(t, w))

	w = do(d, post("csrf_token=good&name="+strings.Repeat("a", 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCSRFTokens(t *testing.T) {
	t.Parallel()

	_, err := middleware.NewCSRFTokens([]byte("short"))
	require.ErrorIs(t, err, middleware.ErrCSRFSecretShort)

	tokens, err := middleware.NewCSRFTokens([]byte(strings.Repeat("s", 32)))
	require.NoError(t, err)

	tok, err := tokens.Issue("session-a")
	require.NoError(t, err)
	assert.True(t, tokens.Valid("session-a", tok))
	assert.False(t, tokens.Valid("session-b", tok))
	assert.False(t, tokens.Valid("session-a", tok[:len(tok)-2]))
	assert.False(t, tokens.Valid("session-a", "!!not-base64!!"))

	other, err := tokens.Issue("session-a")
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)

	rotated, err := middleware.NewCSRFTokens([]byte(strings.Repeat("t", 32)))
	require.NoError(t, err)
	assert.False(t, rotated.Valid("session-a", tok))
}

func TestCSRFWithSessionVerifier(t *testing.T) {
	t.Parallel()

	tokens, err := middleware.NewCSRFTokens([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)

	hooks := []handler.Hook{
		middleware.Session(middleware.SessionConfig{}),
		middleware.CSRF(tokens.Verifier()),
	}
	d := mount(t, hooks, func(app *router.App) {
		app.Get("/token", func(req *handler.Request, res *handler.Response) error {
			sid, _ := middleware.SessionID(req)
			tok, err := tokens.Issue(sid)
			if err != nil {
				return err
			}
			res.Text(http.StatusOK, tok)
			return nil
		})
		app.Post("/submit", ok)
	})

	first := get(d, "/token")
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	tok := body(t, first)

	r := httptest.NewRequest(http.MethodPost, "/submit", nil)
	r.AddCookie(cookies[0])
	r.Header.Set("X-CSRF-Token", tok)
	assert.Equal(t, http.StatusOK, do(d, r).Code)

	r = httptest.NewRequest(http.MethodPost, "/submit", nil)
	r.Header.Set("X-CSRF-Token", tok)
	assert.Equal(t, http.StatusForbidden, do(d, r).Code)
}
