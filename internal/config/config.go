package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/hoststate/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel    = "warning"
	DefaultStorePath   = "/var/lib/hoststate/app.store"
	DefaultStoreDriver = "sqlite"
	DefaultStoreCodec  = "xor"
	DefaultSnapshot    = "/run/hoststate/snapshot.json"
	DefaultInterval    = 2

	defaultEnvPrefix  = "HOSTSTATE"
	defaultConfigName = "hoststate"
	defaultConfigType = "toml"
)

var (
	validDrivers = []string{"sqlite", "badger", "memory"}
	validCodecs  = []string{"xor", "aead"}
)

type Config struct {
	LogLevel        string `mapstructure:"log_level"`
	StorePath       string `mapstructure:"store_path"`
	StoreDriver     string `mapstructure:"store_driver"`
	StoreCodec      string `mapstructure:"store_codec"`
	StorePassphrase string `mapstructure:"store_passphrase"`
	Snapshot        string `mapstructure:"snapshot"`
	Interval        int    `mapstructure:"interval"`
	MetricsAddr     string `mapstructure:"metrics_addr"`

	// Args holds the positional arguments left after flag parsing
	Args []string `mapstructure:"-"`
}

// Load reads configuration from the config file, the environment and the
// given command line arguments, in increasing order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix:   defaultEnvPrefix,
		searchPaths: []string{"/etc", "."},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := pflag.NewFlagSet("hoststate", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configFlag := fs.String("config", "", "Path to the configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("store-path", DefaultStorePath, "Location of the persistent store")
	fs.String("store-driver", DefaultStoreDriver, "Backing store driver (sqlite, badger, memory)")
	fs.String("store-codec", DefaultStoreCodec, "Value codec (xor, aead)")
	fs.String("store-passphrase", "", "Passphrase for the aead codec")
	fs.String("snapshot", DefaultSnapshot, "Raw snapshot file (json or yaml)")
	fs.Int("interval", DefaultInterval, "Monitor refresh interval in seconds")
	fs.String("metrics-addr", "", "Serve prometheus metrics on this address while monitoring")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"log_level":        "log-level",
		"store_path":       "store-path",
		"store_driver":     "store-driver",
		"store_codec":      "store-codec",
		"store_passphrase": "store-passphrase",
		"snapshot":         "snapshot",
		"interval":         "interval",
		"metrics_addr":     "metrics-addr",
	}
	for key, flagName := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	configPath := o.configPath
	if envPath := os.Getenv(o.envPrefix + "_CONFIG"); envPath != "" {
		configPath = envPath
	}
	if *configFlag != "" {
		configPath = *configFlag
	}

	v.SetConfigType(defaultConfigType)
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(defaultConfigName)
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}
	cfg.Args = fs.Args()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field values that viper cannot type check
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.StorePath == "" && c.StoreDriver != "memory" {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field  string
			Reason string
		}{
			Field:  "store_path",
			Reason: "must not be empty",
		})
	}

	if !contains(validDrivers, c.StoreDriver) {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value string
		}{
			Field: "store_driver",
			Value: c.StoreDriver,
		})
	}

	if !contains(validCodecs, c.StoreCodec) {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value string
		}{
			Field: "store_codec",
			Value: c.StoreCodec,
		})
	}

	if c.StoreCodec == "aead" && c.StorePassphrase == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "store_passphrase")
	}

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	return nil
}

var _ Provider = (*Config)(nil)

func (c *Config) GetLogLevel() string        { return c.LogLevel }
func (c *Config) GetStorePath() string       { return c.StorePath }
func (c *Config) GetStoreDriver() string     { return c.StoreDriver }
func (c *Config) GetStoreCodec() string      { return c.StoreCodec }
func (c *Config) GetStorePassphrase() string { return c.StorePassphrase }
func (c *Config) GetSnapshotPath() string    { return c.Snapshot }
func (c *Config) GetMetricsAddr() string     { return c.MetricsAddr }

func (c *Config) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
