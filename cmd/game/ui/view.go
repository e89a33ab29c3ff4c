package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	statusHeight := 3
	logHeight := m.height - statusHeight

	statusStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Width(max(m.width-4, 1))

	logPanel := lipgloss.NewStyle().
		Width(max(m.width, 1)).
		Height(max(logHeight, 1)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1)

	contentWidth := m.width - 4

	// Wrap first so the tail always fits the panel.
	var rendered []string
	for _, line := range m.lines {
		if line.Text == "" {
			rendered = append(rendered, "")
			continue
		}
		for _, part := range strings.Split(line.Text, "\n") {
			wrapped := wrapAndIndent(part, contentWidth, " ")
			for _, w := range strings.Split(wrapped, "\n") {
				rendered = append(rendered, Line{line.Kind, w}.Render())
			}
		}
	}

	maxLines := max(logHeight-4, 1)
	if len(rendered) > maxLines {
		rendered = rendered[len(rendered)-maxLines:]
	}
	var content strings.Builder
	for i := len(rendered); i < maxLines; i++ {
		content.WriteString("\n")
	}
	content.WriteString(strings.Join(rendered, "\n"))

	return logPanel.Render(content.String()) + "\n" + statusStyle.Render(m.status())
}

func (m Model) status() string {
	switch {
	case m.result != nil:
		return Lines(doneEvent(m.result))[0].Render()
	case m.running:
		return getLoadingAnimation(m.animationFrame) + " agent is working"
	}
	return "run ended"
}

func wrapAndIndent(text string, width int, indent string) string {
	if width <= 0 || len(text) <= width {
		return indent + text
	}

	var result strings.Builder
	words := strings.Fields(text)
	if len(words) == 0 {
		return indent + text
	}

	currentLine := indent + words[0]
	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			result.WriteString(currentLine + "\n")
			currentLine = indent + word
		}
	}

	result.WriteString(currentLine)
	return result.String()
}

func getLoadingAnimation(frame int) string {
	arc := []string{"◜", "◠", "◝", "◞", "◡", "◟"}
	return arc[frame%len(arc)]
}
