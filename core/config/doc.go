// Package config loads typed configuration from environment variables.
//
// The first Load reads a .env file from the working directory when one
// exists, then caarlos0/env parses `env` and `envDefault` struct tags.
// Each type is parsed once and cached:
//
//	var srv server.Config
//	config.MustLoad(&srv) // SERVER_ADDRESS, SERVER_PORT, SERVER_TLS_CERT_FILE, ...
//
//	var rt router.Config
//	if err := config.Load(&rt); err != nil { // ROUTER_HANDLER_TIMEOUT
//		return err
//	}
//
// Reset drops the cache, which tests use after changing the environment.
package config
