package vm

import (
	"fmt"

	"github.com/piescript-lang/piescript/internal/token"
)

// RuntimeError is the single error type the VM ever returns from Run:
// a message plus the source position the instruction pointer was at
// when the error was raised. Unlike the teacher's multi-frame stack
// trace, spec.md §7 calls for exactly one rendered line — a script
// that fails prints "at (line, column) - message" and nothing else,
// matching diag.Error's format so a user sees the same shape of
// message whether the failure happened at compile time or run time.
type RuntimeError struct {
	Message  string
	Position token.Position
}

func newRuntimeError(position token.Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Position: position}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("at (%d, %d) - %s", e.Position.Line, e.Position.Column, e.Message)
}
