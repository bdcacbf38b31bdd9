package session

import (
	"io"
	"log/slog"
	"time"
)

const (
	DefaultTTL             = 24 * time.Hour
	DefaultSweepInterval   = time.Minute
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds store settings loadable from the environment.
type Config struct {
	DefaultTTL    time.Duration `env:"SESSION_DEFAULT_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
}

// Options is the resolved configuration shared by all store implementations.
type Options struct {
	DefaultTTL      time.Duration
	SweepInterval   time.Duration
	ShutdownTimeout time.Duration
	Now             func() time.Time
	Logger          *slog.Logger
}

// Option configures a store.
type Option func(*Options)

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		DefaultTTL:      DefaultTTL,
		SweepInterval:   DefaultSweepInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
		Now:             time.Now,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TTL returns ttl, or the default TTL when ttl is not positive.
func (o Options) TTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return o.DefaultTTL
	}
	return ttl
}

// WithConfig applies a Config.
func WithConfig(cfg Config) Option {
	return func(o *Options) {
		WithDefaultTTL(cfg.DefaultTTL)(o)
		WithSweepInterval(cfg.SweepInterval)(o)
	}
}

// WithDefaultTTL sets the lifetime used when Add or Update get no TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *Options) {
		if ttl > 0 {
			o.DefaultTTL = ttl
		}
	}
}

// WithSweepInterval sets how often the background sweep runs. Zero disables it.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.SweepInterval = interval
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight sweep.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.ShutdownTimeout = timeout
		}
	}
}

// WithClock replaces the time source, which lets tests simulate elapsed time.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

// WithLogger sets the logger for background operations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}
