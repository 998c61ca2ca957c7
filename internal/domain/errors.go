package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction matches every *ExtractionError via errors.Is.
	ErrExtraction = errors.New("report extraction failed")

	// ErrMissingLine means the document ended before a required line.
	ErrMissingLine = errors.New("line missing")

	// ErrMissingField means a line had fewer whitespace fields than required.
	ErrMissingField = errors.New("field missing")

	// ErrNotFinite means a number decoded or scaled to infinity or NaN.
	ErrNotFinite = errors.New("value is not finite")

	// ErrRecordNotFound means no record carries the requested event identifier.
	ErrRecordNotFound = errors.New("record not found")
)

// QueryError reports a catalog filter value that could not be parsed.
type QueryError struct {
	Param string
	Value string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExtractionError reports the first field of a bulletin that could not be
// decoded. Line is the 0-based index of the offending line.
type ExtractionError struct {
	Line  int
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (line %d): %v", e.Field, e.Line, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExtraction) match any extraction failure.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
