// Package checker verifies that Brainfuck source is well formed before any
// code is generated for it.
package checker

import (
	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/lhaig/bf2asm/internal/lexer"
	"github.com/lhaig/bf2asm/internal/messages"
)

const (
	loopOpen  = "'['"
	loopClose = "']'"
)

// Check scans source once and reports the first bracket mismatch as a
// syntax error. A ']' without a matching '[' is reported where it occurs;
// an unclosed '[' is reported at the innermost unclosed bracket once the
// scan is complete. Brackets inside '#' comments are ignored, the same way
// the code generator ignores them, so the balance guarantee covers operator
// brackets only: "#]" on its own is valid.
func Check(source string) error {
	var open []lexer.Token // unclosed '[' tokens, innermost last
	l := lexer.New(source)
	for tok := l.NextToken(); tok.Type != lexer.EOF; tok = l.NextToken() {
		switch tok.Type {
		case lexer.LOOP_OPEN:
			open = append(open, tok)
		case lexer.LOOP_CLOSE:
			if len(open) == 0 {
				return diagnostic.Syntaxf(tok.Line, tok.Column,
					messages.UnmatchedBrackets, loopClose, tok.Line, tok.Column)
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		tok := open[len(open)-1]
		return diagnostic.Syntaxf(tok.Line, tok.Column,
			messages.UnmatchedBrackets, loopOpen, tok.Line, tok.Column)
	}
	return nil
}
