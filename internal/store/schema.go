package store

import (
	"database/sql"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
)

const (
	// SchemaKey is the reserved key holding the initialization record.
	// Downstream consumers read it directly.
	SchemaKey = "system"

	// RecordVersion is written into a fresh initialization record
	RecordVersion = "1.0.0"

	// TableSchemaVersion versions the sqlite table layout
	TableSchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS entries (
	       key         TEXT PRIMARY KEY NOT NULL CHECK (length(key) > 0),
	       value       BLOB NOT NULL,
	       updated_at  TEXT NOT NULL
	   );`

	selectEntrySQL = `SELECT value FROM entries WHERE key = ?`

	upsertEntrySQL = `
    INSERT INTO entries (key, value, updated_at)
    VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
    ON CONFLICT(key) DO UPDATE SET
        value = excluded.value,
        updated_at = excluded.updated_at`

	deleteEntrySQL = `DELETE FROM entries WHERE key = ?`
)

// SchemaRecord is the value stored under SchemaKey. The flag fields are the
// defaults a first run starts with; users may change them afterwards.
type SchemaRecord struct {
	Version       string `json:"version"`
	Initialized   bool   `json:"initialized"`
	DarkTheme     bool   `json:"darkTheme"`
	HideHeaderBar bool   `json:"hideHeaderBar"`
	ExpandSideBar bool   `json:"expandSideBar"`
}

// DefaultSchema returns the record written on first initialization
func DefaultSchema() SchemaRecord {
	return SchemaRecord{
		Version:       RecordVersion,
		Initialized:   true,
		DarkTheme:     true,
		HideHeaderBar: true,
		ExpandSideBar: false,
	}
}

// InitSchema creates the sqlite tables and records the table layout version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating store tables...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "create_tables",
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, TableSchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", TableSchemaVersion).
		Msg("Store tables initialized")

	return nil
}

// GetSchemaVersion returns the current table layout version, 0 for a new file
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
