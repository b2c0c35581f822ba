// Package codegen translates Brainfuck source into assembly text using the
// instruction templates of one backend.
package codegen

import (
	"strings"

	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/lhaig/bf2asm/internal/lexer"
	"github.com/lhaig/bf2asm/internal/messages"
)

// Indent prefixes every instruction line. Label definitions are not indented.
const Indent = "    "

type generator struct {
	tmpl  *backend.Template
	frag  *Fragment
	depth int   // loops open before the fragment starts
	local []int // local loops opened and not yet closed, innermost last
}

// Translate generates the fragment for chunk. depth is the number of loops
// already open where chunk begins; a ']' in chunk may close at most that
// many of them.
func Translate(chunk string, t *backend.Template, depth int) (*Fragment, error) {
	g := &generator{
		tmpl:  t,
		frag:  &Fragment{},
		depth: depth,
	}

	l := lexer.New(chunk)
	for tok := l.NextToken(); tok.Type != lexer.EOF; tok = l.NextToken() {
		if err := g.translateToken(tok); err != nil {
			return nil, err
		}
	}

	g.frag.Open = append([]int(nil), g.local...)
	return g.frag, nil
}

func (g *generator) translateToken(tok lexer.Token) error {
	switch tok.Type {
	case lexer.INC_PTR:
		g.emitLines(g.tmpl.IncPtr)
	case lexer.DEC_PTR:
		g.emitLines(g.tmpl.DecPtr)
	case lexer.INC_VAL:
		g.emitLines(g.tmpl.IncVal)
	case lexer.DEC_VAL:
		g.emitLines(g.tmpl.DecVal)
	case lexer.OUTPUT:
		g.emitLines(g.tmpl.Output)
	case lexer.INPUT:
		g.emitLines(g.tmpl.Input)
	case lexer.COMMENT:
		g.emitLines(g.tmpl.Comment + lexer.CommentText(tok.Literal))
	case lexer.LOOP_OPEN:
		g.openLoop()
	case lexer.LOOP_CLOSE:
		return g.closeLoop(tok)
	}
	return nil
}

// openLoop emits the loop head: start label, test, and exit branch.
func (g *generator) openLoop() {
	idx := g.frag.Labels
	g.frag.Labels++
	g.local = append(g.local, idx)

	g.emitLabel(LabelRef{Index: idx})
	g.emitLines(g.tmpl.LoopTest)
	g.emitBranch(g.tmpl.BranchZero, LabelRef{Index: idx, End: true})
}

// closeLoop emits the loop tail: test, back branch, and end label.
func (g *generator) closeLoop(tok lexer.Token) error {
	var ref LabelRef
	if n := len(g.local); n > 0 {
		ref = LabelRef{Index: g.local[n-1]}
		g.local = g.local[:n-1]
	} else if g.frag.Pops < g.depth {
		ref = LabelRef{Outer: true, Index: g.frag.Pops}
		g.frag.Pops++
	} else {
		return diagnostic.Syntaxf(tok.Line, tok.Column,
			messages.UnmatchedBrackets, "']'", tok.Line, tok.Column)
	}

	g.emitLines(g.tmpl.LoopTest)
	g.emitBranch(g.tmpl.BranchNonZero, ref)
	ref.End = true
	g.emitLabel(ref)
	return nil
}

// emitLines emits every line of text with the instruction indent
func (g *generator) emitLines(text string) {
	g.frag.appendText(IndentLines(text))
}

func (g *generator) emitLabel(ref LabelRef) {
	g.frag.appendLabel(ref, true)
	g.frag.appendText(":\n")
}

// emitBranch emits a branch template with every {label} bound to ref
func (g *generator) emitBranch(tmpl string, ref LabelRef) {
	pieces := strings.Split(IndentLines(tmpl), backend.LabelPlaceholder)
	for i, piece := range pieces {
		if i > 0 {
			g.frag.appendLabel(ref, false)
		}
		g.frag.appendText(piece)
	}
}

// IndentLines prefixes each line of text with Indent and terminates it
// with a newline.
func IndentLines(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(Indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Prologue returns the program header followed by the pointer setup.
func Prologue(t *backend.Template) string {
	return t.Header + "\n" + IndentLines(t.PtrInit)
}

// Epilogue returns the program exit sequence.
func Epilogue(t *backend.Template) string {
	return IndentLines(t.Exit)
}

// Generate translates a whole program body in one piece with a fresh
// label counter. The result excludes the prologue and epilogue.
func Generate(source string, t *backend.Template) (string, error) {
	frag, err := Translate(source, t, 0)
	if err != nil {
		return "", err
	}
	return frag.Apply(NewState())
}
