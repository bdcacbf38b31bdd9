package main

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/routekit/core/config"
	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/core/server"
	"github.com/dmitrymomot/routekit/core/session"
)

// appConfig holds settings specific to the demo application.
type appConfig struct {
	CSRFSecret     string        `env:"CSRF_SECRET" envDefault:"insecure-development-secret-change-me"`
	AdminToken     string        `env:"ADMIN_TOKEN"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"120"`
	RateWindow     time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

type settings struct {
	app     appConfig
	log     logger.Config
	router  router.Config
	server  server.Config
	session session.Config
}

func loadSettings() (settings, error) {
	var s settings
	if err := config.Load(&s.app); err != nil {
		return s, fmt.Errorf("app config: %w", err)
	}
	if err := config.Load(&s.log); err != nil {
		return s, fmt.Errorf("log config: %w", err)
	}
	if err := config.Load(&s.router); err != nil {
		return s, fmt.Errorf("router config: %w", err)
	}
	if err := config.Load(&s.server); err != nil {
		return s, fmt.Errorf("server config: %w", err)
	}
	if err := config.Load(&s.session); err != nil {
		return s, fmt.Errorf("session config: %w", err)
	}
	return s, nil
}
