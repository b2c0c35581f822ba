package codegen

import "fmt"

// LoopContext holds the labels of one open loop.
type LoopContext struct {
	ID    int
	Start string
	End   string
}

// NewLoopContext returns the context for the loop with the given ID.
func NewLoopContext(id int) LoopContext {
	return LoopContext{
		ID:    id,
		Start: fmt.Sprintf("loop_start_%d", id),
		End:   fmt.Sprintf("loop_end_%d", id),
	}
}

// State is the label counter and loop stack of one compilation. It is
// threaded through every chunk of the source in order.
type State struct {
	NextLabel int           // ID of the next loop to be opened
	Stack     []LoopContext // open loops, innermost last
}

// NewState returns the state at the start of a compilation.
func NewState() *State {
	return &State{}
}

// Depth returns the current loop nesting depth.
func (s *State) Depth() int {
	return len(s.Stack)
}
