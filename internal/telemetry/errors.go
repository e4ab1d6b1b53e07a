package telemetry

import "codeberg.org/mutker/hoststate/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig       = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidSnapshotPath = errors.ErrorCode("telemetry_invalid_snapshot_path")

	// Source Errors
	ErrSnapshotUnavailable = errors.ErrorCode("telemetry_snapshot_unavailable")
	ErrSnapshotFormat      = errors.ErrorCode("telemetry_snapshot_format")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("telemetry_operation_timeout")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrInvalidConfig:       "Invalid telemetry configuration",
		ErrInvalidSnapshotPath: "Snapshot path is empty",
		ErrSnapshotUnavailable: "Raw snapshot could not be read",
		ErrSnapshotFormat:      "Raw snapshot is not a json or yaml object",
		ErrOperationTimeout:    "Telemetry operation timed out",
	})
}
