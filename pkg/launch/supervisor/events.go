package supervisor

import "fmt"

// State is a stage of a launch attempt.
type State int

const (
	StateIdle State = iota
	StateResolvingMetadata
	StateResolvingRuntime
	StateComposing
	StateVerifying
	StateScriptGenerated
	StateRunning
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateResolvingMetadata: "resolving metadata",
	StateResolvingRuntime:  "resolving runtime",
	StateComposing:         "composing",
	StateVerifying:         "verifying files",
	StateScriptGenerated:   "generating script",
	StateRunning:           "running",
	StateSucceeded:         "succeeded",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventKind tells which Event fields are set.
type EventKind int

const (
	// EventStep announces the stage about to run. State is set.
	EventStep EventKind = iota
	// EventOutput carries one line of game output. Line and Stream are set.
	EventOutput
	// EventSuccess reports a spawned process. Pid is set.
	EventSuccess
	// EventFailed ends an attempt that never spawned. Err is set.
	EventFailed
	// EventExited ends an attempt whose process terminated. Code and Abnormal are set.
	EventExited
)

func (k EventKind) String() string {
	switch k {
	case EventStep:
		return "step"
	case EventOutput:
		return "output"
	case EventSuccess:
		return "success"
	case EventFailed:
		return "failed"
	case EventExited:
		return "exited"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Stream identifies where an output line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Event is one progress notification from a launch attempt. The channel
// carrying it is closed after an EventFailed or EventExited.
type Event struct {
	Kind     EventKind
	State    State
	Line     string
	Stream   Stream
	Pid      int
	Err      error
	Code     int
	Abnormal bool
}

// Terminal reports whether e is the last event of its attempt.
func (e Event) Terminal() bool {
	return e.Kind == EventFailed || e.Kind == EventExited
}

func (e Event) String() string {
	switch e.Kind {
	case EventStep:
		return "step: " + e.State.String()
	case EventOutput:
		return fmt.Sprintf("%s: %s", e.Stream, e.Line)
	case EventSuccess:
		return fmt.Sprintf("started pid %d", e.Pid)
	case EventFailed:
		return "failed: " + e.Err.Error()
	case EventExited:
		if e.Abnormal {
			return fmt.Sprintf("exited abnormally with code %d", e.Code)
		}
		return "exited"
	default:
		return e.Kind.String()
	}
}
