package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an out-of-range or missing parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// Define specific error types for better error handling
var (
	ErrInvalidFieldCount = fmt.Errorf("invalid field count")
	ErrInvalidNumber     = fmt.Errorf("invalid numeric value")
	ErrInvalidRate       = fmt.Errorf("rate out of [0,1] range")
	ErrInvalidComplexity = fmt.Errorf("complexity out of [0,1] range")
	ErrEmptyDataset      = fmt.Errorf("empty dataset")
	ErrNoInitiatives     = fmt.Errorf("no initiatives in portfolio")
	ErrUnknownEffort     = fmt.Errorf("unknown effort level")
)
