package store

import "codeberg.org/mutker/hoststate/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("store_invalid_config")
	ErrInvalidPath   = errors.ErrorCode("store_invalid_path")
	ErrUnknownDriver = errors.ErrorCode("store_unknown_driver")

	// Access Errors
	ErrUnavailable = errors.ErrorCode("store_unavailable")
	ErrCorrupt     = errors.ErrorCode("store_corrupt")
	ErrAccess      = errors.ErrorCode("store_access_failed")
	ErrInvalidKey  = errors.ErrorCode("store_invalid_key")
	ErrEncode      = errors.ErrorCode("store_encode_failed")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("store_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("store_schema_validation_failed")
	ErrSchemaVersion          = errors.ErrorCode("store_schema_version_unsupported")
	ErrInvalidSchemaRecord    = errors.ErrorCode("store_invalid_schema_record")

	// Lifecycle Errors
	ErrBackupFailed       = errors.ErrorCode("store_backup_failed")
	ErrBackupNotSupported = errors.ErrorCode("store_backup_not_supported")
	ErrStorageClose       = errors.ErrShutdownFailed
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrInvalidConfig:          "Invalid store configuration",
		ErrInvalidPath:            "Store path is empty",
		ErrUnknownDriver:          "Unknown store driver",
		ErrUnavailable:            "Store could not be opened",
		ErrCorrupt:                "Stored value is corrupt",
		ErrAccess:                 "Store access failed",
		ErrInvalidKey:             "Store key must not be empty",
		ErrEncode:                 "Failed to encode value for storage",
		ErrSchemaInitFailed:       "Failed to initialize store schema",
		ErrSchemaValidationFailed: "Failed to validate store schema",
		ErrSchemaVersion:          "Unsupported store schema version",
		ErrInvalidSchemaRecord:    "Value is not a valid initialization record",
		ErrBackupFailed:           "Store backup failed",
		ErrBackupNotSupported:     "Store driver does not support backups",
	})
}
