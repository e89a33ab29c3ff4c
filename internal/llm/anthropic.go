package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agentescape/internal/debug"
	"agentescape/internal/observability"
)

// AnthropicService completes chat turns through the Anthropic Messages API.
type AnthropicService struct {
	client    anthropic.Client
	model     string
	maxTokens int
	debug     *debug.Logger
	tracer    trace.Tracer
}

func NewAnthropicService(apiKey, model string, maxTokens int, debug *debug.Logger, opts ...option.RequestOption) *AnthropicService {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicService{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		debug:     debug,
		tracer:    otel.Tracer("llm-service"),
	}
}

func (s *AnthropicService) Complete(ctx context.Context, messages []Message, tools []ToolSpec) (*Reply, error) {
	operationType := "agent_turn"
	if opType := getOperationType(ctx); opType != "" {
		operationType = opType
	}

	ctx, span := s.tracer.Start(ctx, operationType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.GenerationAttributes("anthropic", s.model, s.maxTokens, len(tools))...,
		),
	)
	defer span.End()
	CopyGameContextToSpan(ctx, span)

	system, conversation := toAnthropicMessages(messages)
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		Messages:  conversation,
		System:    system,
	}
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: t.Parameters["properties"]}
		if required, ok := t.Parameters["required"].([]any); ok {
			for _, r := range required {
				if name, ok := r.(string); ok {
					schema.Required = append(schema.Required, name)
				}
			}
		}
		req.Tools = append(req.Tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}

	s.debug.Printf("Anthropic Completion - messages: %d, tools: %d, model: %s", len(messages), len(tools), s.model)

	startTime := time.Now()
	resp, err := s.client.Messages.New(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		s.debug.Printf("Anthropic Completion error: %v", err)
		return nil, fmt.Errorf("message completion failed: %w", err)
	}

	reply := &Reply{
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	var text []string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, b.Text)
		case anthropic.ToolUseBlock:
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(b.Input),
			})
		}
	}
	reply.Content = strings.Join(text, "\n")

	duration := time.Since(startTime)
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
		attribute.Int64("response_time_ms", duration.Milliseconds()),
		attribute.Int("gen_ai.response.tool_calls", len(reply.ToolCalls)),
		attribute.String("langfuse.observation.output", reply.Content),
		attribute.String("langfuse.observation.model.name", s.model),
	)

	s.debug.Printf("Anthropic Completion stop: %s, tool calls: %d, tokens: %d/%d, duration: %v",
		resp.StopReason, len(reply.ToolCalls), resp.Usage.InputTokens, resp.Usage.OutputTokens, duration)

	return reply, nil
}

// toAnthropicMessages lifts system turns out of the conversation and folds
// tool results into user turns, which is where the Messages API expects them.
func toAnthropicMessages(messages []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam

	appendUser := func(block anthropic.ContentBlockParamUnion) {
		if n := len(out); n > 0 && out[n-1].Role == anthropic.MessageParamRoleUser {
			out[n-1].Content = append(out[n-1].Content, block)
			return
		}
		out = append(out, anthropic.NewUserMessage(block))
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleUser:
			appendUser(anthropic.NewTextBlock(m.Content))
		case RoleTool:
			appendUser(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, strings.HasPrefix(m.Content, "Error:")))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := json.RawMessage(tc.Arguments)
				if !json.Valid(args) {
					args = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	return system, out
}
