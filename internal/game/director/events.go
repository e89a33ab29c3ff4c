package director

import "agentescape/internal/game/actors"

type EventKind int

const (
	EventStart EventKind = iota
	EventTurn
	EventStall
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventTurn:
		return "turn"
	case EventStall:
		return "stall"
	case EventDone:
		return "done"
	}
	return "unknown"
}

// Event is emitted as the run progresses, for the console or the TUI.
type Event struct {
	Kind     EventKind
	RunID    string
	Turn     int
	Location string
	Text     string
	Calls    []actors.Dispatched
	// Stall details.
	Reason string
	Err    error
	Nudges int
	// Set on EventDone.
	Result *Result
}

// Reporter receives events synchronously on the loop goroutine.
type Reporter func(Event)
