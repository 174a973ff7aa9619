package tensor

import "github.com/pkg/errors"

// Error kinds. Every failure surfaced by an operation wraps exactly one of
// these, so callers classify with errors.Is.
var (
	// ErrShape reports shapes that cannot be broadcast, an axis out of range
	// or a non-scalar backward root without a seed.
	ErrShape = errors.New("shape error")

	// ErrValidation reports malformed arguments such as a bad contraction
	// specification or a duplicated axis.
	ErrValidation = errors.New("validation error")

	// ErrDomain reports an input outside the mathematical domain of an
	// operation when no sentinel value is defined for it.
	ErrDomain = errors.New("domain error")

	// ErrUseAfterFree reports an operation on a buffer that was released.
	ErrUseAfterFree = errors.New("use after free")
)

// ShapeErrorf wraps ErrShape with a formatted message.
func ShapeErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrShape, format, args...)
}

// ValidationErrorf wraps ErrValidation with a formatted message.
func ValidationErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// DomainErrorf wraps ErrDomain with a formatted message.
func DomainErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrDomain, format, args...)
}

// UseAfterFreeErrorf wraps ErrUseAfterFree with a formatted message.
func UseAfterFreeErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrUseAfterFree, format, args...)
}
