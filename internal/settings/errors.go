package settings

import "codeberg.org/mutker/hoststate/internal/errors"

const (
	ErrLoadFailed    = errors.ErrorCode("settings_load_failed")
	ErrSaveFailed    = errors.ErrorCode("settings_save_failed")
	ErrInvalidPatch  = errors.ErrorCode("settings_invalid_patch")
	ErrReadOnlyField = errors.ErrorCode("settings_read_only_field")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrLoadFailed:    "Failed to load settings",
		ErrSaveFailed:    "Failed to save settings",
		ErrInvalidPatch:  "Invalid settings patch",
		ErrReadOnlyField: "Settings field cannot be changed",
	})
}
