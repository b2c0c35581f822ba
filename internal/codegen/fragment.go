package codegen

import (
	"fmt"
	"strings"
)

// LabelRef refers to a loop label without naming it. Local references index
// the loops opened inside the fragment in order of appearance; outer
// references index the loops that were already open when the fragment
// began, 0 being the innermost.
type LabelRef struct {
	Outer bool `json:"outer,omitempty"`
	Index int  `json:"index"`
	End   bool `json:"end,omitempty"`
}

// Part is either literal assembly text or a label reference. Def marks a
// label definition; other references are branch targets.
type Part struct {
	Text  string    `json:"text,omitempty"`
	Label *LabelRef `json:"label,omitempty"`
	Def   bool      `json:"def,omitempty"`
}

// Fragment is the generated code for one piece of source with its loop
// labels left unbound, so the same fragment can be spliced in at any label
// offset.
type Fragment struct {
	Parts  []Part `json:"parts"`
	Labels int    `json:"labels"`         // loops opened in the fragment
	Pops   int    `json:"pops"`           // outer loops closed in the fragment
	Open   []int  `json:"open,omitempty"` // local loops left open, innermost last
}

func (f *Fragment) appendText(s string) {
	if s == "" {
		return
	}
	if n := len(f.Parts); n > 0 && f.Parts[n-1].Label == nil {
		f.Parts[n-1].Text += s
		return
	}
	f.Parts = append(f.Parts, Part{Text: s})
}

func (f *Fragment) appendLabel(ref LabelRef, def bool) {
	f.Parts = append(f.Parts, Part{Label: &ref, Def: def})
}

// Validate checks that the fragment is one Translate could have produced:
// every local loop defines its start once, loops closed in the fragment
// define their end once, the rest are listed in Open in opening order, and
// each enclosing loop it pops has its end defined exactly once.
func (f *Fragment) Validate() error {
	if f.Labels < 0 || f.Pops < 0 {
		return fmt.Errorf("negative loop counts: labels %d, pops %d", f.Labels, f.Pops)
	}

	starts := make([]int, f.Labels)
	ends := make([]int, f.Labels)
	outerEnds := make([]int, f.Pops)
	for _, p := range f.Parts {
		ref := p.Label
		if ref == nil {
			continue
		}
		if ref.Outer {
			if ref.Index < 0 || ref.Index >= f.Pops {
				return fmt.Errorf("enclosing loop reference %d out of range", ref.Index)
			}
			if p.Def {
				if !ref.End {
					return fmt.Errorf("enclosing loop %d has its start defined again", ref.Index)
				}
				outerEnds[ref.Index]++
			}
			continue
		}
		if ref.Index < 0 || ref.Index >= f.Labels {
			return fmt.Errorf("loop reference %d out of range", ref.Index)
		}
		if p.Def {
			if ref.End {
				ends[ref.Index]++
			} else {
				starts[ref.Index]++
			}
		}
	}

	for i, n := range outerEnds {
		if n != 1 {
			return fmt.Errorf("enclosing loop %d closed %d times", i, n)
		}
	}
	open := 0
	for i := 0; i < f.Labels; i++ {
		if starts[i] != 1 {
			return fmt.Errorf("loop %d start defined %d times", i, starts[i])
		}
		switch ends[i] {
		case 0:
			if open >= len(f.Open) || f.Open[open] != i {
				return fmt.Errorf("loop %d is left open but not recorded as open", i)
			}
			open++
		case 1:
		default:
			return fmt.Errorf("loop %d end defined %d times", i, ends[i])
		}
	}
	if open != len(f.Open) {
		return fmt.Errorf("open loops %v do not match the fragment", f.Open)
	}
	return nil
}

// Apply binds the fragment's labels against s, returns the resulting
// assembly text and advances s past the fragment. s is left untouched when
// the fragment is invalid or does not fit s.
func (f *Fragment) Apply(s *State) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if f.Pops > len(s.Stack) {
		return "", fmt.Errorf("fragment closes %d enclosing loops but only %d are open", f.Pops, len(s.Stack))
	}

	base := s.NextLabel
	var sb strings.Builder
	for _, p := range f.Parts {
		if p.Label == nil {
			sb.WriteString(p.Text)
			continue
		}
		ctx := NewLoopContext(base + p.Label.Index)
		if p.Label.Outer {
			ctx = s.Stack[len(s.Stack)-1-p.Label.Index]
		}
		if p.Label.End {
			sb.WriteString(ctx.End)
		} else {
			sb.WriteString(ctx.Start)
		}
	}

	s.Stack = s.Stack[:len(s.Stack)-f.Pops]
	for _, idx := range f.Open {
		s.Stack = append(s.Stack, NewLoopContext(base+idx))
	}
	s.NextLabel += f.Labels
	return sb.String(), nil
}
