package driver

// State is a phase of a driver run.
type State int

const (
	StateIdle State = iota
	StateSpawned
	StateReading
	StatePromptMatched
	StateResponded
	StateEOF
	StateClosed
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateSpawned:       "spawned",
	StateReading:       "reading",
	StatePromptMatched: "prompt-matched",
	StateResponded:     "responded",
	StateEOF:           "eof",
	StateClosed:        "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
