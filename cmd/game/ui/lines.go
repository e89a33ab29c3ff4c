package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agentescape/internal/game/director"
)

type LineKind int

const (
	Plain LineKind = iota
	Header
	Thought
	ToolCall
	ToolResult
	Stall
	Win
	Loss
)

// Line is one printable piece of a run event.
type Line struct {
	Kind LineKind
	Text string
}

var styles = map[LineKind]lipgloss.Style{
	Plain:      lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	Header:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	Thought:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),
	ToolCall:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	ToolResult: lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	Stall:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	Win:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	Loss:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

func (l Line) Render() string {
	return styles[l.Kind].Render(l.Text)
}

// Lines turns a director event into the lines shown for it.
func Lines(e director.Event) []Line {
	var lines []Line
	switch e.Kind {
	case director.EventStart:
		lines = append(lines, Line{Header, "run " + e.RunID}, Line{Plain, e.Text})

	case director.EventTurn, director.EventStall:
		lines = append(lines, Line{Header, fmt.Sprintf("── turn %d · %s", e.Turn, e.Location)})
		if text := strings.TrimSpace(e.Text); text != "" {
			lines = append(lines, Line{Thought, text})
		}
		for _, c := range e.Calls {
			lines = append(lines,
				Line{ToolCall, fmt.Sprintf("> %s %s", c.Call.Name, c.Call.Arguments)},
				Line{ToolResult, c.Result},
			)
		}
		if e.Kind == director.EventStall {
			lines = append(lines, Line{Stall, fmt.Sprintf("stalled (%s), nudge %d", e.Reason, e.Nudges)})
		}

	case director.EventDone:
		if e.Result == nil {
			break
		}
		summary := fmt.Sprintf("after %d turns, %d nudges used", e.Result.Turns, e.Result.Nudges)
		if e.Result.Outcome == director.Success {
			lines = append(lines, Line{Win, "SUCCESS: the task is complete " + summary})
		} else {
			lines = append(lines, Line{Loss, fmt.Sprintf("FAILED: %s %s", e.Result.Reason, summary)})
		}
	}
	return lines
}

func doneEvent(r *director.Result) director.Event {
	return director.Event{Kind: director.EventDone, Result: r}
}
