package navigation

import "fmt"

// Phase is the top-level mission state.
type Phase int

// The mission phases. Displaying and Halted are terminal.
const (
	Searching Phase = iota
	Tracking
	Arrived
	Returning
	Displaying
	Halted
)

var phaseNames = map[Phase]string{
	Searching:  "searching",
	Tracking:   "tracking",
	Arrived:    "arrived",
	Returning:  "returning",
	Displaying: "displaying",
	Halted:     "halted",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether the phase never transitions.
func (p Phase) Terminal() bool {
	return p == Displaying || p == Halted
}

// Transition is one recorded phase change.
type Transition struct {
	From Phase
	To   Phase
}

func (t Transition) String() string {
	return t.From.String() + "->" + t.To.String()
}
