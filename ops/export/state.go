package export

import "fmt"

// State of one export run.
type State int

const (
	Idle State = iota
	Resolving
	Normalizing
	Exporting
	Restoring
	Done
	Aborted
)

var stateNames = [...]string{
	Idle:        "idle",
	Resolving:   "resolving",
	Normalizing: "normalizing",
	Exporting:   "exporting",
	Restoring:   "restoring",
	Done:        "done",
	Aborted:     "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) Terminal() bool { return s == Done || s == Aborted }

// next lists the legal transitions. Aborted is reachable from every
// non-terminal state.
var next = map[State][]State{
	Idle:        {Resolving},
	Resolving:   {Normalizing},
	Normalizing: {Exporting},
	Exporting:   {Restoring},
	Restoring:   {Done},
}

func canMove(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Aborted {
		return true
	}
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}
