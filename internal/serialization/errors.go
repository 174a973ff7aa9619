package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch  = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap     = errors.New("tensor offsets overlap")
	ErrOutOfBounds       = errors.New("tensor extends beyond data section")
	ErrNegativeOffset    = errors.New("negative offset or size")
	ErrSizeMismatch      = errors.New("tensor byte size does not match its shape")
	ErrTooManyTensors    = errors.New("too many tensors in file")
	ErrTensorNameTooLong = errors.New("tensor name too long")
	ErrInvalidTensorName = errors.New("invalid tensor name")
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrInvalidHeader     = errors.New("malformed header")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
)

// Validation error types.
const (
	TypeOffsetOverlap  = "offset_overlap"
	TypeOutOfBounds    = "out_of_bounds"
	TypeNegativeOffset = "negative_offset"
	TypeSizeMismatch   = "size_mismatch"
	TypeTooManyTensors = "too_many_tensors"
	TypeNameTooLong    = "name_too_long"
	TypeInvalidName    = "invalid_name"
	TypeHeaderTooLarge = "header_too_large"
	TypeInvalidHeader  = "invalid_header"
	TypeInvalidDType   = "invalid_dtype"
	TypeChecksum       = "checksum_mismatch"
)

var sentinels = map[string]error{
	TypeOffsetOverlap:  ErrOffsetOverlap,
	TypeOutOfBounds:    ErrOutOfBounds,
	TypeNegativeOffset: ErrNegativeOffset,
	TypeSizeMismatch:   ErrSizeMismatch,
	TypeTooManyTensors: ErrTooManyTensors,
	TypeNameTooLong:    ErrTensorNameTooLong,
	TypeInvalidName:    ErrInvalidTensorName,
	TypeHeaderTooLarge: ErrHeaderTooLarge,
	TypeInvalidHeader:  ErrInvalidHeader,
	TypeInvalidDType:   ErrUnsupportedDType,
	TypeChecksum:       ErrChecksumMismatch,
}

// ValidationError provides detailed information about validation failures.
// It matches the sentinel of its Type with errors.Is.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "out_of_bounds")
	Tensor  string // Primary tensor name involved
	Tensor2 string // Secondary tensor name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap returns the sentinel error for e.Type, or nil.
func (e *ValidationError) Unwrap() error {
	return sentinels[e.Type]
}
