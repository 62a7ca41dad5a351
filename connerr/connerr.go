// Package connerr collects the typed error kinds surfaced synchronously
// at the boundary calls of the connector substrate (write, execute,
// result-set fill). Errors wrap github.com/cockroachdb/errors so callers
// retain stack traces and can still match on the underlying sentinel with
// errors.Is/errors.As.
package connerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Match with errors.Is.
var (
	// ErrUnexpectedData is returned when write() is called after all
	// dynamic parameters have already been satisfied.
	ErrUnexpectedData = errors.New("connector: unexpected data after parameters complete")

	// ErrIncompleteParameters is returned when execute is requested
	// before all dynamic parameters have been written.
	ErrIncompleteParameters = errors.New("connector: execute requested before parameters complete")

	// ErrResultSetOnBatch is returned when execute_query is called on a
	// prepared query that has staged batch entries.
	ErrResultSetOnBatch = errors.New("connector: result set requested on a batched statement")
)

// UnsupportedTypeError reports that a mapping could not classify a
// native column type.
type UnsupportedTypeError struct {
	Column     string
	NativeCode string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("connector: unsupported native type %q for column %q", e.NativeCode, e.Column)
}

// NewUnsupportedType builds an UnsupportedTypeError, already wrapped for
// stack-trace capture.
func NewUnsupportedType(column, nativeCode string) error {
	return errors.WithStack(&UnsupportedTypeError{Column: column, NativeCode: nativeCode})
}

// EncodingError reports that payload bytes failed a type's validity
// predicate (bad UTF-8, malformed decimal text, an out-of-range date).
type EncodingError struct {
	Field string
	Cause error
}

func (e *EncodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connector: encoding error in field %q: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("connector: encoding error in field %q", e.Field)
}

func (e *EncodingError) Unwrap() error { return e.Cause }

// NewEncoding builds an EncodingError.
func NewEncoding(field string, cause error) error {
	return errors.WithStack(&EncodingError{Field: field, Cause: cause})
}

// BufferTooSmallError reports that a result-set fill call produced zero
// bytes because the caller buffer could not hold even one fixed-size
// cell or a stream header pair. Hint is the minimum buffer size that
// would allow progress.
type BufferTooSmallError struct {
	Hint int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("connector: buffer too small, need at least %d bytes", e.Hint)
}

// NewBufferTooSmall builds a BufferTooSmallError.
func NewBufferTooSmall(hint int) error {
	return errors.WithStack(&BufferTooSmallError{Hint: hint})
}

// DriverError opaquely wraps a failure surfaced by the underlying
// driver (native wire protocol, FFI bridge, or bridge/peer transport).
type DriverError struct {
	Cause error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("connector: driver error: %v", e.Cause)
}

func (e *DriverError) Unwrap() error { return e.Cause }

// NewDriver wraps an opaque driver failure.
func NewDriver(cause error) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&DriverError{Cause: cause})
}
