package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/hoststate/internal/config"
	"codeberg.org/mutker/hoststate/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hoststate.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noSearch() config.Option {
	return config.WithSearchPaths(os.TempDir() + "/hoststate-config-test-none")
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "debug"
store_path = "/tmp/hoststate/app.store"
store_driver = "badger"
store_codec = "aead"
store_passphrase = "correct horse"
snapshot = "/tmp/snapshot.yaml"
interval = 5
metrics_addr = "127.0.0.1:9108"
`)

	t.Setenv("HOSTSTATE_CONFIG", configPath)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.Equal(t, "/tmp/hoststate/app.store", cfg.StorePath)
	assert.Equal(t, "badger", cfg.StoreDriver)
	assert.Equal(t, "aead", cfg.StoreCodec)
	assert.Equal(t, "correct horse", cfg.StorePassphrase)
	assert.Equal(t, "/tmp/snapshot.yaml", cfg.Snapshot)
	assert.Equal(t, 5*time.Second, cfg.GetInterval())
	assert.Equal(t, "127.0.0.1:9108", cfg.GetMetricsAddr())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOSTSTATE_CONFIG", "")

	cfg, err := config.Load(nil, noSearch())
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultStorePath, cfg.StorePath)
	assert.Equal(t, config.DefaultStoreDriver, cfg.StoreDriver)
	assert.Equal(t, config.DefaultStoreCodec, cfg.StoreCodec)
	assert.Equal(t, config.DefaultSnapshot, cfg.Snapshot)
	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Empty(t, cfg.GetMetricsAddr())
	assert.Empty(t, cfg.Args)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("HOSTSTATE_CONFIG", configPath)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := config.Load([]string{"--config", filepath.Join(t.TempDir(), "absent.toml")})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("HOSTSTATE_CONFIG", configPath)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "error"
store_driver = "memory"
`)
	t.Setenv("HOSTSTATE_CONFIG", configPath)
	t.Setenv("HOSTSTATE_LOG_LEVEL", "info")

	cfg, err := config.Load([]string{"store", "get", "theme", "--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"store", "get", "theme"}, cfg.Args)
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "error"
`)
	t.Setenv("HOSTSTATE_CONFIG", configPath)
	t.Setenv("HOSTSTATE_LOG_LEVEL", "info")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			LogLevel:    "info",
			StorePath:   "/tmp/app.store",
			StoreDriver: "sqlite",
			StoreCodec:  "xor",
			Interval:    1,
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		code   errors.ErrorCode
	}{
		{"valid", func(*config.Config) {}, ""},
		{"unknown driver", func(c *config.Config) { c.StoreDriver = "redis" }, errors.ErrInvalidConfig},
		{"unknown codec", func(c *config.Config) { c.StoreCodec = "rot13" }, errors.ErrInvalidConfig},
		{"empty path", func(c *config.Config) { c.StorePath = "" }, errors.ErrInvalidConfig},
		{"memory without path", func(c *config.Config) { c.StorePath = ""; c.StoreDriver = "memory" }, ""},
		{"aead without passphrase", func(c *config.Config) { c.StoreCodec = "aead" }, errors.ErrMissingConfig},
		{"zero interval", func(c *config.Config) { c.Interval = 0 }, errors.ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}
