package actors

import (
	"fmt"
	"strings"

	"agentescape/internal/llm"
)

// Transcript is the ordered conversation the agent replays to the model on
// every turn. It is never trimmed.
type Transcript struct {
	messages []llm.Message
}

func NewTranscript(messages ...llm.Message) *Transcript {
	t := &Transcript{}
	t.Append(messages...)
	return t
}

func (t *Transcript) Append(messages ...llm.Message) {
	t.messages = append(t.messages, messages...)
}

// Messages returns a copy safe to hand to a model client.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

// Count reports how many messages have the given role and content.
func (t *Transcript) Count(role llm.Role, content string) int {
	n := 0
	for _, m := range t.messages {
		if m.Role == role && m.Content == content {
			n++
		}
	}
	return n
}

// String renders the transcript one line per entry, for debug logs.
func (t *Transcript) String() string {
	var b strings.Builder
	for _, m := range t.messages {
		switch {
		case m.Role == llm.RoleTool:
			fmt.Fprintf(&b, "tool[%s]: %s\n", m.ToolCallID, m.Content)
		case len(m.ToolCalls) > 0:
			calls := make([]string, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				calls = append(calls, fmt.Sprintf("%s(%s)", tc.Name, tc.Arguments))
			}
			fmt.Fprintf(&b, "%s: %s %s\n", m.Role, m.Content, strings.Join(calls, ", "))
		default:
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	return b.String()
}
