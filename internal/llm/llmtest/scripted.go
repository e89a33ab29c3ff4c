// Package llmtest provides a scripted ChatModel for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agentescape/internal/llm"
)

// ErrScriptExhausted is returned once every scripted step has been used.
var ErrScriptExhausted = errors.New("script exhausted")

// Step is one scripted model turn. Exactly one of Reply, Err or Block is
// meaningful; Block waits for the request context to end.
type Step struct {
	Reply *llm.Reply
	Err   error
	Block bool
}

// Calls is a step that asks for the given tool calls. IDs are generated
// when empty.
func Calls(calls ...llm.ToolCall) Step {
	return Step{Reply: &llm.Reply{ToolCalls: calls}}
}

func Text(content string) Step {
	return Step{Reply: &llm.Reply{Content: content}}
}

func Fail(err error) Step {
	return Step{Err: err}
}

func Hang() Step {
	return Step{Block: true}
}

func Call(name, arguments string) llm.ToolCall {
	return llm.ToolCall{Name: name, Arguments: arguments}
}

// Model replays steps in order and records what it was sent.
type Model struct {
	mu       sync.Mutex
	steps    []Step
	next     int
	ids      int
	Requests []Request
}

type Request struct {
	Messages []llm.Message
	Tools    []llm.ToolSpec
}

func NewModel(steps ...Step) *Model {
	return &Model{steps: steps}
}

func (m *Model) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (*llm.Reply, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, Request{Messages: messages, Tools: tools})
	if m.next >= len(m.steps) {
		m.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	step := m.steps[m.next]
	m.next++

	var reply *llm.Reply
	if step.Reply != nil {
		r := *step.Reply
		r.ToolCalls = make([]llm.ToolCall, len(step.Reply.ToolCalls))
		for i, tc := range step.Reply.ToolCalls {
			if tc.ID == "" {
				m.ids++
				tc.ID = fmt.Sprintf("call_%d", m.ids)
			}
			r.ToolCalls[i] = tc
		}
		reply = &r
	}
	m.mu.Unlock()

	switch {
	case step.Block:
		<-ctx.Done()
		return nil, ctx.Err()
	case step.Err != nil:
		return nil, step.Err
	}
	return reply, nil
}

// Used reports how many steps have been consumed.
func (m *Model) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}
