package server

import (
	"net"
	"strconv"
	"time"
)

const (
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
)

// Config describes where and how to listen. TLS is enabled when both
// certificate fields are set and disabled when both are empty.
type Config struct {
	Address string `env:"SERVER_ADDRESS" envDefault:""`
	Port    int    `env:"SERVER_PORT" envDefault:"8080"`

	CertFile string `env:"SERVER_TLS_CERT_FILE" envDefault:""`
	KeyFile  string `env:"SERVER_TLS_KEY_FILE" envDefault:""`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxHeaderBytes  int           `env:"SERVER_MAX_HEADER_BYTES" envDefault:"1048576"`
}

// DefaultConfig returns a plaintext configuration on port 8080.
func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxHeaderBytes:  DefaultMaxHeaderBytes,
	}
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether both certificate fields are set.
func (c Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// Validate checks the port range and that the certificate fields are set together.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return ErrIncompleteTLS
	}
	return nil
}
