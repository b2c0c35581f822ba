package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota

	// Operators
	INC_PTR    // >
	DEC_PTR    // <
	INC_VAL    // +
	DEC_VAL    // -
	OUTPUT     // .
	INPUT      // ,
	LOOP_OPEN  // [
	LOOP_CLOSE // ]

	// Comment runs from '#' to the end of the line
	COMMENT
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	INC_PTR:    ">",
	DEC_PTR:    "<",
	INC_VAL:    "+",
	DEC_VAL:    "-",
	OUTPUT:     ".",
	INPUT:      ",",
	LOOP_OPEN:  "[",
	LOOP_CLOSE: "]",
	COMMENT:    "#",
}

// String returns the string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token with position information
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("Token{Type: %s, Literal: %q, Line: %d, Column: %d}",
		t.Type, t.Literal, t.Line, t.Column)
}

var operators = map[byte]TokenType{
	'>': INC_PTR,
	'<': DEC_PTR,
	'+': INC_VAL,
	'-': DEC_VAL,
	'.': OUTPUT,
	',': INPUT,
	'[': LOOP_OPEN,
	']': LOOP_CLOSE,
}

// LookupOperator reports the operator token type for ch, if any
func LookupOperator(ch byte) (TokenType, bool) {
	tok, ok := operators[ch]
	return tok, ok
}
