package config

import "time"

// Provider defines the interface for accessing configuration values.
// All configuration values are immutable after initial loading.
type Provider interface {
	// GetLogLevel returns the configured logging level
	GetLogLevel() string

	// GetStorePath returns the location of the persistent store
	GetStorePath() string

	// GetStoreDriver returns the backing store driver name
	GetStoreDriver() string

	// GetStoreCodec returns the value codec name
	GetStoreCodec() string

	// GetStorePassphrase returns the passphrase for the aead codec
	GetStorePassphrase() string

	// GetSnapshotPath returns the raw snapshot file written by the collector
	GetSnapshotPath() string

	// GetInterval returns the monitor refresh interval
	GetInterval() time.Duration

	// GetMetricsAddr returns the listen address for the metrics endpoint,
	// empty when metrics are not served
	GetMetricsAddr() string
}

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath  string
	envPrefix   string
	searchPaths []string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "HOSTSTATE"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// WithSearchPaths replaces the directories searched for hoststate.toml
func WithSearchPaths(paths ...string) Option {
	return func(o *options) error {
		o.searchPaths = paths
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarn    LogLevel = "warn"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}
