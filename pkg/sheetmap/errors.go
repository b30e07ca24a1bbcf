package sheetmap

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

// ErrNoRecords indicates an import produced zero decoded records.
var ErrNoRecords = errors.New("no records decoded")

// ErrInvalidRegion indicates a merge region with negative or inverted bounds.
var ErrInvalidRegion = errors.New("invalid merge region")

// SchemaError reports a malformed column declaration. It is raised while the
// schema is built, before any row is touched.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
}

func schemaErrorf(field, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports a required value missing from a source row.
// Row is the 1-based row number of the source document.
type ValidationError struct {
	Row   int
	Alias string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s is required", e.Row, e.Alias)
}

// ConversionError reports a cell value that could not be coerced into the
// declared field type.
type ConversionError struct {
	Row   int
	Alias string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("row %d: %s: cannot convert %q: %v", e.Row, e.Alias, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// MergeConflictError reports a merge region overlapping one applied earlier.
type MergeConflictError struct {
	Region   MergeRegion
	Existing MergeRegion
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge region %s overlaps %s", e.Region, e.Existing)
}

// StateError reports an operation attempted in a state that does not allow it.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IOError wraps a flush or transport failure. It is always fatal for the
// sheet or job that produced it.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// BrokenPipe reports whether the receiving side went away mid-write.
func (e *IOError) BrokenPipe() bool {
	return IsBrokenPipe(e.Err)
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

// RowOf returns the source row carried by a row-scoped error.
func RowOf(err error) (int, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Row, true
	}
	var cerr *ConversionError
	if errors.As(err, &cerr) {
		return cerr.Row, true
	}
	return 0, false
}
