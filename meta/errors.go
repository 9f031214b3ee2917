package meta

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned when decoding, constructing or encoding metadata blocks. They
// are wrapped by *FieldError when a specific field is at fault; use errors.Is
// to test for them.
var (
	// ErrTruncatedInput is returned when the input ends before a field that
	// its length prefix (or fixed width) requires.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrMalformedLength is returned when a length prefix implies a byte range
	// that cannot be addressed.
	ErrMalformedLength = errors.New("malformed length")
	// ErrUnrecognizedImageFormat is returned by NewPicture when the picture
	// data has to be inspected and is not a recognized image.
	ErrUnrecognizedImageFormat = errors.New("unrecognized image format")
	// ErrFieldTooLarge is returned when a field does not fit in its length
	// prefix.
	ErrFieldTooLarge = errors.New("field too large")
)

// A FieldError records the field, and the offset within the encoded block,
// at which decoding or encoding failed.
type FieldError struct {
	// Name of the field; e.g. "mime length".
	Field string
	// Offset in bytes of the field from the start of the block; -1 if unknown.
	Offset int64
	// Underlying error.
	Err error
}

func (e *FieldError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("meta: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("meta: %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// inspectError is returned by NewPicture when the image inspector fails. It
// matches ErrUnrecognizedImageFormat and unwraps to the inspector's error.
type inspectError struct {
	err error
}

func (e *inspectError) Error() string {
	return fmt.Sprintf("meta.NewPicture: %v; %v", ErrUnrecognizedImageFormat, e.err)
}

func (e *inspectError) Unwrap() error {
	return e.err
}

func (e *inspectError) Is(target error) bool {
	return target == ErrUnrecognizedImageFormat
}
