package ffd

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/danderson/ffd/fragments"
)

var (
	// ErrEndOfData is returned when the input ends partway through a
	// record.
	ErrEndOfData = fragments.ErrEndOfData
	// ErrInvalidLength is returned when a payload violates a field's
	// fixed size or padding, or when a document body is too long for
	// its 16-bit header length.
	ErrInvalidLength = errors.New("invalid length")
	// ErrInvalidFormat is returned when a mandatory field is absent,
	// or a numeric string cannot be parsed.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrNumberOutOfRange is returned when an integer payload is wider
	// than its target type, or a value overflows during conversion.
	ErrNumberOutOfRange = errors.New("number out of range")
	// ErrInvalidString is returned when a string cannot be
	// represented in the legacy code page.
	ErrInvalidString = errors.New("invalid string")
	// ErrFieldTooBig is returned when a record payload is longer than
	// 65535 bytes.
	ErrFieldTooBig = fragments.ErrFieldTooBig
)

// IOError is the error returned when reading or writing the
// underlying byte stream fails.
type IOError struct {
	Err error
}

func (e IOError) Error() string {
	return fmt.Sprintf("ffd i/o: %v", e.Err)
}

func (e IOError) Unwrap() error {
	return e.Err
}

// TypeError is the error returned when a type cannot be represented
// in the fiscal data wire format, or when a record type's field
// declarations are malformed.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type isn't representable.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("ffd cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// rangeErr converts integer width errors from fragments into
// ErrNumberOutOfRange.
func rangeErr(err error) error {
	if errors.Is(err, fragments.ErrTooWide) {
		return fmt.Errorf("%w: %w", ErrNumberOutOfRange, err)
	}
	return err
}
