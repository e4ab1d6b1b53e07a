package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type sqliteDriver struct {
	db   *sql.DB
	path string
	log  logger.Logger
}

// OpenSQLite opens or creates a sqlite database at path and brings its tables
// to the current layout
func OpenSQLite(path string, log logger.Logger) (Driver, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidPath)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrUnavailable, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	dsn := "file:" + path + "?_journal=WAL&_busy_timeout=5000&_sync=FULL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrUnavailable, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	// A single connection keeps writers from tripping over SQLITE_BUSY;
	// the Store already serializes mutations.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrUnavailable, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "ping_database",
			Path:  path,
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrUnavailable, err)
	}

	log.Info().
		Str("path", path).
		Int("schema_version", TableSchemaVersion).
		Msg("SQLite store opened")

	return &sqliteDriver{
		db:   db,
		path: path,
		log:  log,
	}, nil
}

func (d *sqliteDriver) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := d.db.QueryRowContext(ctx, selectEntrySQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New().Wrap(ErrAccess, err)
	}

	return value, true, nil
}

func (d *sqliteDriver) Set(ctx context.Context, key string, value []byte) error {
	if _, err := d.db.ExecContext(ctx, upsertEntrySQL, key, value); err != nil {
		return errors.New().Wrap(ErrAccess, err)
	}
	return nil
}

func (d *sqliteDriver) Delete(ctx context.Context, key string) (bool, error) {
	errFactory := errors.New()

	res, err := d.db.ExecContext(ctx, deleteEntrySQL, key)
	if err != nil {
		return false, errFactory.Wrap(ErrAccess, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errFactory.Wrap(ErrAccess, err)
	}

	return n > 0, nil
}

func (d *sqliteDriver) Backup(ctx context.Context, dest string) error {
	return backupDatabase(ctx, d.db, dest, d.log)
}

func (d *sqliteDriver) Close() error {
	errFactory := errors.New()

	// Checkpoint WAL and cleanup on close
	if _, err := d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		d.db.Close()
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := d.db.Close(); err != nil {
		return errFactory.WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	d.log.Info().Str("path", d.path).Msg("SQLite store closed")

	return nil
}
