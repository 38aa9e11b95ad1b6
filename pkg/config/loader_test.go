package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/pkg/config"
)

type defaultsConfig struct {
	Name  string `env:"CFG_TEST_NAME" envDefault:"backoffice"`
	Count int    `env:"CFG_TEST_COUNT" envDefault:"42"`
}

type cachedConfig struct {
	Value string `env:"CFG_TEST_CACHED" envDefault:"first"`
}

type requiredConfig struct {
	Value string `env:"CFG_TEST_REQUIRED,required"`
}

type validatedConfig struct {
	Port int `env:"CFG_TEST_PORT" envDefault:"0"`
}

var errBadPort = errors.New("port must be positive")

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errBadPort
	}
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "backoffice", cfg.Name)
	assert.Equal(t, 42, cfg.Count)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED", "first")

	var a cachedConfig
	require.NoError(t, config.Load(&a))

	t.Setenv("CFG_TEST_CACHED", "second")

	var b cachedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)
}

func TestLoad_Required(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("CFG_TEST_REQUIRED", "present")
	require.NoError(t, config.Load(&cfg), "failures must not be cached")
	assert.Equal(t, "present", cfg.Value)
}

func TestParse_Validator(t *testing.T) {
	_, err := config.Parse[validatedConfig]()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.ErrorIs(t, err, errBadPort)

	t.Setenv("CFG_TEST_PORT", "8080")
	cfg, err := config.Parse[validatedConfig]()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_NilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[defaultsConfig](nil), config.ErrNilPointer)
}

func TestMustLoad_Panics(t *testing.T) {
	type missing struct {
		V string `env:"CFG_TEST_MUST_MISSING,required"`
	}
	var cfg missing
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
