// Package faults classifies the failures the activity parser, registry loader
// and file sources can report.
package faults

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// KindUnknown is only used for errors that could not be classified.
	KindUnknown Kind = iota
	// KindMalformedRow marks a single activity row that failed validation.
	// The rest of the log is still usable.
	KindMalformedRow
	// KindStructural marks an input that cannot be decoded at all, such as a
	// log without its required columns or an invalid registry document.
	KindStructural
	// KindIO marks a source that could not be opened or read.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRow:
		return "malformed-row"
	case KindStructural:
		return "structural"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Resource names the file or stream involved
// when known; Row and Line are set for malformed rows (Row is the 1-based data
// row, Line the 1-based line in the source).
type Error struct {
	Kind     Kind
	Resource string
	Row      int
	Line     int
	Err      error
}

func (e *Error) Error() string {
	msg := "<nil>"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Kind == KindMalformedRow && e.Resource != "":
		return fmt.Sprintf("%s: row %d (line %d): %s", e.Resource, e.Row, e.Line, msg)
	case e.Kind == KindMalformedRow:
		return fmt.Sprintf("row %d (line %d): %s", e.Row, e.Line, msg)
	case e.Resource != "":
		return fmt.Sprintf("%s: %s", e.Resource, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// MalformedRow builds a row-level error.
func MalformedRow(row, line int, err error) *Error {
	return &Error{Kind: KindMalformedRow, Row: row, Line: line, Err: err}
}

// Structural builds a whole-input decoding error.
func Structural(err error) *Error {
	return &Error{Kind: KindStructural, Err: err}
}

// IO builds a read/open error for the named resource.
func IO(resource string, err error) *Error {
	return &Error{Kind: KindIO, Resource: resource, Err: err}
}

// WithResource attaches a resource name to a classified error, leaving other
// errors wrapped as KindUnknown.
func WithResource(err error, resource string) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		cp := *fe
		cp.Resource = resource
		return &cp
	}
	return &Error{Kind: KindUnknown, Resource: resource, Err: err}
}

// KindOf reports the kind of err, or KindUnknown if err carries no *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
