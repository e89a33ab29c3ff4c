package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"agentescape/internal/game/director"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m.handleEvent(msg.event)
	case eventsClosedMsg:
		m.running = false
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case animationTickMsg:
		if m.running {
			m.animationFrame++
			return m, animationTimer()
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleEvent(e director.Event) (tea.Model, tea.Cmd) {
	m.lines = append(m.lines, Lines(e)...)
	m.lines = append(m.lines, Line{Plain, ""})
	if e.Kind == director.EventDone {
		m.running = false
		m.result = e.Result
		m.lines = append(m.lines, Line{Header, "press q to quit"})
		return m, nil
	}
	return m, waitForEvent(m.events)
}
