package diagnostic

import (
	"errors"
	"fmt"

	"github.com/lhaig/bf2asm/internal/messages"
)

// Kind classifies a compilation failure
type Kind int

const (
	SyntaxError Kind = iota
	ConfigurationError
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case ConfigurationError:
		return "configuration error"
	default:
		return "unknown"
	}
}

// Diagnostic is a fatal, deterministic compilation failure. The message is
// identified by a catalog ID so the caller can render it in any language.
type Diagnostic struct {
	Kind   Kind
	ID     string        // message catalog ID
	Args   []interface{} // positional message arguments
	Line   int           // 0 when the failure has no source position
	Column int
}

// Syntaxf creates a syntax error at the given source position
func Syntaxf(line, col int, id string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: SyntaxError, ID: id, Args: args, Line: line, Column: col}
}

// Configf creates a configuration error
func Configf(id string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: ConfigurationError, ID: id, Args: args}
}

// Error renders the diagnostic in English
func (d *Diagnostic) Error() string {
	return d.Message(messages.English)
}

// Message renders the diagnostic with the given printer
func (d *Diagnostic) Message(p *messages.Printer) string {
	return p.Render(d.ID, d.Args...)
}

// Format returns the diagnostic prefixed with its location:
//
//	error[hello.b:3:10]: syntax error: unmatched ']' at line 3, column 10
//	error[hello.b]: backend for sparc/plan9 is not implemented
func (d *Diagnostic) Format(filename string, p *messages.Printer) string {
	if d.Line == 0 {
		return fmt.Sprintf("error[%s]: %s", filename, d.Message(p))
	}
	return fmt.Sprintf("error[%s:%d:%d]: %s", filename, d.Line, d.Column, d.Message(p))
}

// As returns the Diagnostic wrapped in err, if any
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsKind reports whether err wraps a Diagnostic of the given kind
func IsKind(err error, kind Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == kind
}
