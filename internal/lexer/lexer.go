package lexer

import "strings"

// Lexer scans Brainfuck source and produces operator and comment tokens.
// Every other character is skipped.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
}

// New creates a new Lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// atEnd reports whether the whole input has been consumed.
// A NUL byte inside the input is not the end.
func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// readComment reads from '#' up to, but not including, the end of line
func (l *Lexer) readComment() string {
	position := l.position
	for !l.atEnd() && l.ch != '\n' {
		l.readChar()
	}
	return strings.TrimSuffix(l.input[position:l.position], "\r")
}

// NextToken returns the next operator or comment token from the input
func (l *Lexer) NextToken() Token {
	for !l.atEnd() {
		if l.ch == '#' {
			tok := Token{Type: COMMENT, Line: l.line, Column: l.column}
			tok.Literal = l.readComment()
			return tok
		}
		if typ, ok := LookupOperator(l.ch); ok {
			tok := Token{Type: typ, Literal: string(l.ch), Line: l.line, Column: l.column}
			l.readChar()
			return tok
		}
		l.readChar()
	}
	return Token{Type: EOF, Line: l.line, Column: l.column}
}

// Tokenize scans the whole input, the trailing EOF token excluded
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// CommentText returns the comment body with its leading '#' markers removed
func CommentText(literal string) string {
	return strings.TrimLeft(literal, "#")
}
