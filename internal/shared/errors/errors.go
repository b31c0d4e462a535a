package errors

import "errors"

// Domain errors
var (
	// Target errors
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")
	ErrPrivateTarget = errors.New("scanning local or private addresses is not allowed")

	// Session contract errors
	ErrEmptyProbeSet    = errors.New("at least one probe kind is required")
	ErrUnknownProbeKind = errors.New("unknown probe kind")
	ErrInvalidTimeout   = errors.New("per-probe timeout must be positive")

	// Registry errors
	ErrDuplicateProbe = errors.New("probe kind registered twice")
	ErrNilProbe       = errors.New("probe cannot be nil")

	// Port scan errors
	ErrUnsupportedScanType = errors.New("unsupported scan type")
	ErrScanToolFailed      = errors.New("scan tool failed")
	ErrUnknownBackend      = errors.New("unknown port-scan backend")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
)
