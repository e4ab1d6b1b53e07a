package store

import (
	"context"

	"codeberg.org/mutker/hoststate/internal/logger"
)

// Driver is the durable key-value engine beneath the Store. Values are
// opaque bytes; encoding is the Store's job.
type Driver interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) (bool, error)
	Close() error
}

// Backuper is implemented by drivers that can write a consistent copy of
// their data to dest
type Backuper interface {
	Backup(ctx context.Context, dest string) error
}

// Opener opens or creates a driver at path
type Opener func(path string, log logger.Logger) (Driver, error)

const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

var drivers = map[string]Opener{
	DriverSQLite: OpenSQLite,
	DriverBadger: OpenBadger,
	DriverMemory: OpenMemory,
}
