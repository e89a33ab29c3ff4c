// Package ui is a read-only terminal view of a run. The control loop runs
// elsewhere and feeds its events in; nothing here touches game state.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"agentescape/internal/game/director"
)

type Model struct {
	lines          []Line
	width          int
	height         int
	events         <-chan director.Event
	running        bool
	animationFrame int
	result         *director.Result
	debug          bool
}

func NewModel(events <-chan director.Event, debug bool) Model {
	var lines []Line
	if debug {
		lines = append(lines, Line{Header, "[DEBUG] diagnostics are written to debug.log"})
	}
	return Model{
		lines:   lines,
		events:  events,
		running: true,
		debug:   debug,
	}
}

// Result is the run result once the done event has arrived.
func (m Model) Result() *director.Result {
	return m.result
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), animationTimer())
}

type animationTickMsg struct{}

type eventMsg struct {
	event director.Event
}

// eventsClosedMsg arrives when the run goroutine has finished sending.
type eventsClosedMsg struct{}

func waitForEvent(events <-chan director.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: e}
	}
}

func animationTimer() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg{}
	})
}
