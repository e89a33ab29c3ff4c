package llm_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentescape/internal/llm"
)

type capture struct {
	url    string
	header http.Header
	body   []byte
}

type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if f.captured != nil {
		f.captured.url = req.URL.String()
		f.captured.header = req.Header.Clone()
		f.captured.body = b
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

const toolCallCompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "gpt-4o",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": null,
			"tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "move_to", "arguments": "{\"location\":\"Engine Room\"}"}},
				{"id": "call_2", "type": "function", "function": {"name": "look_around", "arguments": "{}"}}
			]
		}
	}],
	"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`

var transcript = []llm.Message{
	llm.SystemMessage("You are an intelligent agent."),
	llm.UserMessage("Restore power."),
	llm.AssistantMessage("Checking.", llm.ToolCall{ID: "call_0", Name: "look_around", Arguments: "{}"}),
	llm.ToolMessage("You are in the Control Room.", "call_0"),
}

var tools = []llm.ToolSpec{{
	Name:        "move_to",
	Description: "Move to an adjacent location.",
	Parameters: map[string]any{
		"type":       "object",
		"properties": map[string]any{"location": map[string]any{"type": "string"}},
		"required":   []any{"location"},
	},
}}

type openAIRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    any    `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func TestServiceComplete(t *testing.T) {
	captured := &capture{}
	model, err := llm.New(llm.Options{
		Provider:   llm.ProviderOpenAI,
		Model:      "gpt-4o",
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: &fakeTransport{respStatus: 200, respBody: []byte(toolCallCompletion), captured: captured}},
	}, nil)
	require.NoError(t, err)

	reply, err := model.Complete(context.Background(), transcript, tools)
	require.NoError(t, err)

	assert.Empty(t, reply.Content)
	assert.Equal(t, []llm.ToolCall{
		{ID: "call_1", Name: "move_to", Arguments: `{"location":"Engine Room"}`},
		{ID: "call_2", Name: "look_around", Arguments: "{}"},
	}, reply.ToolCalls)
	assert.Equal(t, llm.Usage{InputTokens: 42, OutputTokens: 7}, reply.Usage)

	var req openAIRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "assistant", req.Messages[2].Role)
	require.Len(t, req.Messages[2].ToolCalls, 1)
	assert.Equal(t, "call_0", req.Messages[2].ToolCalls[0].ID)
	assert.Equal(t, "look_around", req.Messages[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", req.Messages[3].Role)
	assert.Equal(t, "call_0", req.Messages[3].ToolCallID)

	require.Len(t, req.Tools, 1)
	assert.Equal(t, "function", req.Tools[0].Type)
	assert.Equal(t, "move_to", req.Tools[0].Function.Name)
	assert.Equal(t, "object", req.Tools[0].Function.Parameters["type"])
	assert.Equal(t, "Bearer test-key", captured.header.Get("Authorization"))
}

func TestAzureServiceRoutesToDeployment(t *testing.T) {
	captured := &capture{}
	model, err := llm.New(llm.Options{
		Provider:   llm.ProviderAzure,
		Model:      "gpt-4o-2",
		APIKey:     "azure-key",
		Endpoint:   "https://ship.openai.azure.com",
		APIVersion: "2024-08-01-preview",
		HTTPClient: &http.Client{Transport: &fakeTransport{respStatus: 200, respBody: []byte(toolCallCompletion), captured: captured}},
	}, nil)
	require.NoError(t, err)

	reply, err := model.Complete(context.Background(), transcript[:2], nil)
	require.NoError(t, err)
	assert.Len(t, reply.ToolCalls, 2)

	assert.Contains(t, captured.url, "https://ship.openai.azure.com/openai/deployments/gpt-4o-2/chat/completions")
	assert.Contains(t, captured.url, "api-version=2024-08-01-preview")
	assert.Equal(t, "azure-key", captured.header.Get("Api-Key"))
}

func TestServiceSurfacesErrors(t *testing.T) {
	transport := &fakeTransport{respStatus: 400, respBody: []byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`)}
	service := llm.NewService("test-key", "gpt-4o", 256, nil,
		option.WithHTTPClient(&http.Client{Transport: transport}),
		option.WithMaxRetries(0),
	)

	_, err := service.Complete(context.Background(), transcript, tools)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestServiceNoChoices(t *testing.T) {
	transport := &fakeTransport{respStatus: 200, respBody: []byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)}
	service := llm.NewService("test-key", "gpt-4o", 0, nil, option.WithHTTPClient(&http.Client{Transport: transport}))

	_, err := service.Complete(context.Background(), transcript, nil)

	assert.ErrorIs(t, err, llm.ErrNoChoices)
}

func TestUnknownProvider(t *testing.T) {
	_, err := llm.New(llm.Options{Provider: "carrier-pigeon"}, nil)
	assert.ErrorContains(t, err, "unknown model provider")
}
