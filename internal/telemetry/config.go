package telemetry

import "codeberg.org/mutker/hoststate/internal/errors"

const defaultSnapshotPath = "/run/hoststate/snapshot.json"

type Config struct {
	SnapshotPath string
}

func DefaultConfig() Config {
	return Config{
		SnapshotPath: defaultSnapshotPath,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if c.SnapshotPath == "" {
		return errFactory.New(ErrInvalidSnapshotPath)
	}
	return nil
}
