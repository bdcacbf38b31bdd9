package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/middleware"
)

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "203.0.113.9:5000", "203.0.113.9"},
		{"remote addr without port", nil, "203.0.113.9", "203.0.113.9"},
		{"forwarded for first hop", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "10.0.0.2:80", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.2:80", "198.51.100.2"},
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "198.51.100.3", "X-Forwarded-For": "198.51.100.1"}, "10.0.0.2:80", "198.51.100.3"},
		{"garbage header ignored", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.2:80", "10.0.0.2"},
		{"ipv6", map[string]string{"X-Real-IP": "2001:db8::1"}, "10.0.0.2:80", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			req := handler.NewRequest(r, "/", handler.RouteInfo{}, nil)
			assert.Equal(t, tt.want, middleware.ExtractClientIP(req))
		})
	}
}
