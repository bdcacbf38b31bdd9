package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/config"
)

type serverConfig struct {
	Port    int           `env:"ROUTEKIT_TEST_PORT" envDefault:"8080"`
	Timeout time.Duration `env:"ROUTEKIT_TEST_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Secret string `env:"ROUTEKIT_TEST_SECRET,required"`
}

type cachedConfig struct {
	Name string `env:"ROUTEKIT_TEST_NAME"`
}

// Tests below mutate the process environment and the package cache, so they do not run in parallel.

func TestLoad(t *testing.T) {
	t.Setenv("ROUTEKIT_TEST_PORT", "9090")
	config.Reset()

	var cfg serverConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadRequired(t *testing.T) {
	config.Reset()

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoadCachesPerType(t *testing.T) {
	config.Reset()
	t.Setenv("ROUTEKIT_TEST_NAME", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("ROUTEKIT_TEST_NAME", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Name)

	config.Reset()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Name)
}
