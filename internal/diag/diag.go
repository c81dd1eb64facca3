// Package diag renders compile-time diagnostics.
//
// A compile fails if any file produced at least one Error; the parser and
// compiler both accumulate into a List rather than stopping at the first
// problem, so a single bad file reports every issue found in one pass.
package diag

import (
	"fmt"
	"strings"

	"github.com/piescript-lang/piescript/internal/token"
)

// Error is one diagnostic: the token it was raised at, plus a message.
type Error struct {
	Token   token.Token
	Message string
}

func (e Error) String() string {
	return fmt.Sprintf("at (%d, %d) - %s", e.Token.Position.Line, e.Token.Position.Column, e.Message)
}

// List accumulates diagnostics from one or more files.
type List []Error

// Add appends a diagnostic for tok.
func (l *List) Add(tok token.Token, format string, args ...any) {
	*l = append(*l, Error{Token: tok, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic was recorded.
func (l List) HasErrors() bool {
	return len(l) > 0
}

// Error implements the error interface, rendering one diagnostic per line
// in the user-visible "at (line, column) - message" format.
func (l List) Error() string {
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
