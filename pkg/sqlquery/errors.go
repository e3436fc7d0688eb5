package sqlquery

import (
	"errors"
	"fmt"
)

// ErrUnsafeQuery marks a generated statement that is not a plain read.
// The statement is discarded without execution and without retry.
var ErrUnsafeQuery = errors.New("unsafe SQL statement")

// GenerationError wraps a failed or invalid NL-to-SQL translation.
// Eligible for one retry, then the request falls back to the RAG path.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("sql generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps a statement the tabular engine rejected or failed
// to run. Same retry policy as GenerationError.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sql execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
