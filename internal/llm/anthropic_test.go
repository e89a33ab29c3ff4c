package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentescape/internal/llm"
)

const toolUseMessage = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-20250514",
	"stop_reason": "tool_use",
	"content": [
		{"type": "text", "text": "Heading to the engine room."},
		{"type": "tool_use", "id": "toolu_1", "name": "move_to", "input": {"location": "Engine Room"}}
	],
	"usage": {"input_tokens": 30, "output_tokens": 12}
}`

type anthropicRequest struct {
	System []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type      string          `json:"type"`
			Text      string          `json:"text"`
			ID        string          `json:"id"`
			Name      string          `json:"name"`
			Input     json.RawMessage `json:"input"`
			ToolUseID string          `json:"tool_use_id"`
			IsError   bool            `json:"is_error"`
		} `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name        string `json:"name"`
		InputSchema struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		} `json:"input_schema"`
	} `json:"tools"`
}

func TestAnthropicComplete(t *testing.T) {
	captured := &capture{}
	model, err := llm.New(llm.Options{
		Provider:   llm.ProviderAnthropic,
		Model:      "claude-sonnet-4-20250514",
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: &fakeTransport{respStatus: 200, respBody: []byte(toolUseMessage), captured: captured}},
	}, nil)
	require.NoError(t, err)

	conversation := append([]llm.Message{}, transcript...)
	conversation = append(conversation,
		llm.AssistantMessage("", llm.ToolCall{ID: "call_9", Name: "move_to", Arguments: `{"location":"Bridge"}`}),
		llm.ToolMessage("Error: no such place", "call_9"),
		llm.UserMessage("Your task is not completed."),
	)

	reply, err := model.Complete(context.Background(), conversation, tools)
	require.NoError(t, err)

	assert.Equal(t, "Heading to the engine room.", reply.Content)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "toolu_1", reply.ToolCalls[0].ID)
	assert.Equal(t, "move_to", reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"location":"Engine Room"}`, reply.ToolCalls[0].Arguments)
	assert.Equal(t, llm.Usage{InputTokens: 30, OutputTokens: 12}, reply.Usage)

	var req anthropicRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.Len(t, req.System, 1)
	assert.Equal(t, "You are an intelligent agent.", req.System[0].Text)

	// user, assistant(tool_use), user(tool_result), assistant(tool_use), user(tool_result + nudge)
	require.Len(t, req.Messages, 5)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "assistant", req.Messages[1].Role)
	require.Len(t, req.Messages[1].Content, 2)
	assert.Equal(t, "tool_use", req.Messages[1].Content[1].Type)
	assert.Equal(t, "call_0", req.Messages[1].Content[1].ID)
	assert.Equal(t, "tool_result", req.Messages[2].Content[0].Type)
	assert.Equal(t, "call_0", req.Messages[2].Content[0].ToolUseID)

	last := req.Messages[4]
	assert.Equal(t, "user", last.Role)
	require.Len(t, last.Content, 2)
	assert.Equal(t, "tool_result", last.Content[0].Type)
	assert.True(t, last.Content[0].IsError)
	assert.Equal(t, "text", last.Content[1].Type)

	require.Len(t, req.Tools, 1)
	assert.Equal(t, "object", req.Tools[0].InputSchema.Type)
	assert.Equal(t, []string{"location"}, req.Tools[0].InputSchema.Required)
	assert.Contains(t, req.Tools[0].InputSchema.Properties, "location")
	assert.Equal(t, "test-key", captured.header.Get("X-Api-Key"))
}
