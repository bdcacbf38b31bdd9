package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig is returned when environment variables cannot be parsed into the target.
var ErrParsingConfig = errors.New("failed to parse config")

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> value of T
)

// Load fills v from the environment. The first call loads .env if present.
// Each type is parsed once; later calls copy the cached value.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// A missing .env file is not an error; the process environment is used as is.
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()
	if cached, ok := cache.Load(key); ok {
		*v = cached.(T)
		return nil
	}

	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrParsingConfig, err)
	}
	actual, _ := cache.LoadOrStore(key, cfg)
	*v = actual.(T)
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(err)
	}
}

// Reset clears the cache so the next Load re-reads the environment.
func Reset() {
	cache.Range(func(key, _ any) bool {
		cache.Delete(key)
		return true
	})
}
