package sns

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed decode errors through errors.Is.
var (
	ErrMalformedJSON            = errors.New("malformed json")
	ErrMissingField             = errors.New("missing field")
	ErrTypeMismatch             = errors.New("type mismatch")
	ErrUnsupportedAttributeType = errors.New("unsupported attribute type")
	ErrInvalidEncoding          = errors.New("invalid encoding")
	ErrInvalidTimestamp         = errors.New("invalid timestamp")
)

// SyntaxError reports a payload that is not well-formed JSON.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	if e == nil || e.Err == nil {
		return "malformed json"
	}
	return "malformed json: " + e.Err.Error()
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool { return target == ErrMalformedJSON }

// MissingFieldError reports a mandatory field that is absent or null.
type MissingFieldError struct {
	Field string
	Path  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q at %s", e.Field, location(e.Path))
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// TypeMismatchError reports a field holding a different JSON kind than expected.
type TypeMismatchError struct {
	Field    string
	Path     string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q at %s: expected %s, got %s", e.Field, location(e.Path), e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// UnsupportedAttributeTypeError reports a message attribute tag other than
// String or Binary.
type UnsupportedAttributeTypeError struct {
	Field string
	Path  string
	Tag   string
}

func (e *UnsupportedAttributeTypeError) Error() string {
	return fmt.Sprintf("unexpected value %q for key %s at %s: expected %q or %q",
		e.Tag, e.Field, location(e.Path), TagString, TagBinary)
}

func (e *UnsupportedAttributeTypeError) Is(target error) bool {
	return target == ErrUnsupportedAttributeType
}

// InvalidEncodingError reports a Binary attribute value that is not valid
// standard base64.
type InvalidEncodingError struct {
	Field string
	Path  string
	Err   error
}

func (e *InvalidEncodingError) Error() string {
	msg := fmt.Sprintf("field %q at %s: invalid base64", e.Field, location(e.Path))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidEncodingError) Unwrap() error { return e.Err }

func (e *InvalidEncodingError) Is(target error) bool { return target == ErrInvalidEncoding }

// InvalidTimestampError reports a timestamp that matches none of the accepted
// layouts. Err joins the failure of every layout that was tried.
type InvalidTimestampError struct {
	Field string
	Path  string
	Value string
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("field %q at %s: invalid timestamp %q", e.Field, location(e.Path), e.Value)
}

func (e *InvalidTimestampError) Unwrap() error { return e.Err }

func (e *InvalidTimestampError) Is(target error) bool { return target == ErrInvalidTimestamp }

// Kind returns a short stable label for a decode error, suitable for metric
// labels and message headers. Errors from outside this package yield "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrUnsupportedAttributeType):
		return "unsupported_attribute_type"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, ErrInvalidTimestamp):
		return "invalid_timestamp"
	default:
		return "unknown"
	}
}

// FieldPath returns the location carried by a decode error, or "" when err
// is not one of the typed decode errors.
func FieldPath(err error) string {
	var (
		mf *MissingFieldError
		tm *TypeMismatchError
		ua *UnsupportedAttributeTypeError
		ie *InvalidEncodingError
		it *InvalidTimestampError
	)
	switch {
	case errors.As(err, &mf):
		return mf.Path
	case errors.As(err, &tm):
		return tm.Path
	case errors.As(err, &ua):
		return ua.Path
	case errors.As(err, &ie):
		return ie.Path
	case errors.As(err, &it):
		return it.Path
	}
	return ""
}

func location(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
