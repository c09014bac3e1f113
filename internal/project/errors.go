package project

import (
	"errors"
	"fmt"
)

// ErrInvariant marks internal-consistency failures: the engine was asked to
// do something that indicates a bug rather than malformed source.
var ErrInvariant = errors.New("internal consistency failure")

// InvariantError describes a failed internal-consistency check.
type InvariantError struct {
	Op      string
	Message string
	Context map[string]any
}

func invariantf(op, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// With attaches a context value to the error.
func (e *InvariantError) With(key string, value any) *InvariantError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}
