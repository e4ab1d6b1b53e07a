package store

import (
	"codeberg.org/mutker/hoststate/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	defaultPath    = "/var/lib/hoststate/app.store"
	defaultDriver  = DriverSQLite
)

type Config struct {
	Path   string
	Driver string
}

func DefaultConfig() Config {
	return Config{
		Path:   defaultPath,
		Driver: defaultDriver,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if _, ok := drivers[c.Driver]; !ok {
		return errFactory.WithData(ErrUnknownDriver, c.Driver)
	}

	// The memory driver has nothing on disk
	if c.Driver != DriverMemory && c.Path == "" {
		return errFactory.New(ErrInvalidPath)
	}

	return nil
}
