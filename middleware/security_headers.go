package middleware

import (
	"maps"
	"strconv"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
)

// SecurityHeadersHookName is the pipeline name of the security headers hook.
const SecurityHeadersHookName = "security_headers"

// SecurityHeadersConfig lists the headers to set. Empty fields are skipped.
type SecurityHeadersConfig struct {
	ContentTypeOptions        string
	FrameOptions              string
	XSSProtection             string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string

	// HSTSMaxAge enables Strict-Transport-Security on secure requests.
	// Zero disables it.
	HSTSMaxAge     int
	HSTSSubdomains bool
	HSTSPreload    bool
	CustomHeaders  map[string]string
}

// DefaultHSTSMaxAge is 364 days in seconds.
const DefaultHSTSMaxAge = 31449600

var (
	StrictSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "DENY",
		XSSProtection:             "1; mode=block",
		ContentSecurityPolicy:     "default-src 'none'; script-src 'self'; style-src 'self'; img-src 'self'; font-src 'self'; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		ReferrerPolicy:            "no-referrer",
		PermissionsPolicy:         "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		HSTSMaxAge:                DefaultHSTSMaxAge,
		HSTSSubdomains:            true,
		HSTSPreload:               true,
	}

	BalancedSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "SAMEORIGIN",
		XSSProtection:             "1; mode=block",
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		PermissionsPolicy:         "geolocation=(), microphone=(), camera=()",
		CrossOriginOpenerPolicy:   "same-origin-allow-popups",
		CrossOriginResourcePolicy: "cross-origin",
		HSTSMaxAge:                DefaultHSTSMaxAge,
		HSTSSubdomains:            true,
	}

	RelaxedSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
)

// SecurityHeaders returns an after hook that adds cfg's headers to
// successful responses. HSTS is only sent over TLS or behind a proxy that
// reports X-Forwarded-Proto: https.
func SecurityHeaders(cfg SecurityHeadersConfig) handler.Hook {
	headers := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy)
	maps.Copy(headers, cfg.CustomHeaders)

	hsts := hstsValue(cfg)

	return handler.Hook{
		Name:  SecurityHeadersHookName,
		Phase: handler.After,
		Func: func(req *handler.Request, res *handler.Response) (handler.Action, error) {
			h := res.Header()
			for k, v := range headers {
				if h.Get(k) == "" {
					h.Set(k, v)
				}
			}
			if hsts != "" && isSecure(req) {
				h.Set("Strict-Transport-Security", hsts)
			}
			return handler.Continue, nil
		},
	}
}

func hstsValue(cfg SecurityHeadersConfig) string {
	if cfg.HSTSMaxAge <= 0 {
		return ""
	}
	v := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
	if cfg.HSTSSubdomains {
		v += "; includeSubDomains"
	}
	if cfg.HSTSPreload {
		v += "; preload"
	}
	return v
}

func isSecure(req *handler.Request) bool {
	if req.Raw().TLS != nil {
		return true
	}
	return strings.EqualFold(req.Header("X-Forwarded-Proto"), "https")
}
