package store

import (
	"context"
	"os"
	"path/filepath"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	"github.com/dgraph-io/badger/v3"
)

type badgerDriver struct {
	db  *badger.DB
	log logger.Logger
}

// OpenBadger opens or creates a badger directory at path. Writes are synced
// before they return.
func OpenBadger(path string, log logger.Logger) (Driver, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidPath)
	}

	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogger{log: log}).
		WithSyncWrites(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errFactory.WithData(ErrUnavailable, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "open_database",
			Path:  path,
			Error: err.Error(),
		})
	}

	log.Info().Str("path", path).Msg("Badger store opened")

	return &badgerDriver{db: db, log: log}, nil
}

func (d *badgerDriver) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New().Wrap(ErrAccess, err)
	}

	return value, true, nil
}

func (d *badgerDriver) Set(_ context.Context, key string, value []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return errors.New().Wrap(ErrAccess, err)
	}
	return nil
}

func (d *badgerDriver) Delete(_ context.Context, key string) (bool, error) {
	existed := false

	err := d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return false, errors.New().Wrap(ErrAccess, err)
	}

	return existed, nil
}

// Backup streams a full badger backup into dest
func (d *badgerDriver) Backup(_ context.Context, dest string) error {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(dest), defaultDirPerm); err != nil {
		return errFactory.Wrap(ErrBackupFailed, err)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return errFactory.Wrap(ErrBackupFailed, err)
	}

	if _, err := d.db.Backup(f, 0); err != nil {
		f.Close()
		os.Remove(dest)
		return errFactory.Wrap(ErrBackupFailed, err)
	}

	if err := f.Close(); err != nil {
		return errFactory.Wrap(ErrBackupFailed, err)
	}

	d.log.Info().Str("path", dest).Msg("Store backup created")

	return nil
}

func (d *badgerDriver) Close() error {
	if err := d.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

// badgerLogger routes badger's printf logging into the store logger.
// Badger is chatty at info level, so info lines are demoted to debug.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
