package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
)

// ValidateAndUpdateSchema creates the tables on a new file and accepts a file
// already at TableSchemaVersion. Any other version is refused: user data is
// never dropped to make room for a new layout.
func ValidateAndUpdateSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	version, err := GetSchemaVersion(db)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to get schema version")
		return errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	log.Debug().
		Int("version", version).
		Bool("init_db", version == 0).
		Msg("Current schema version")

	switch version {
	case 0:
		return InitSchema(db, log)
	case TableSchemaVersion:
		log.Debug().
			Int("version", version).
			Msg("Schema version is current")
		return nil
	default:
		return errFactory.WithData(ErrSchemaVersion, struct {
			Found     int
			Supported int
		}{
			Found:     version,
			Supported: TableSchemaVersion,
		})
	}
}

// backupDatabase writes a compacted copy of db to dest. VACUUM INTO requires
// no active transaction and a destination that does not exist yet.
func backupDatabase(ctx context.Context, db *sql.DB, dest string, log logger.Logger) error {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(dest), defaultDirPerm); err != nil {
		return errFactory.WithData(ErrBackupFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_backup_dir",
			Path:  dest,
			Error: err.Error(),
		})
	}

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return errFactory.WithData(ErrBackupFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_backup",
			Path:  dest,
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", dest).
		Msg("Store backup created")

	return nil
}
