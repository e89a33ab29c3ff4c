package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agentescape/internal/debug"
	"agentescape/internal/observability"
)

type contextKey string

const (
	operationTypeKey contextKey = "operation_type"
	gameContextKey   contextKey = "game_context"
)

// Service completes chat turns through the OpenAI API, or an Azure OpenAI
// deployment when built with NewAzureService.
type Service struct {
	client    *openai.Client
	model     string
	maxTokens int
	system    string
	debug     *debug.Logger
	tracer    trace.Tracer
}

func NewService(apiKey, model string, maxTokens int, debug *debug.Logger, opts ...option.RequestOption) *Service {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &Service{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		system:    "openai",
		debug:     debug,
		tracer:    otel.Tracer("llm-service"),
	}
}

// NewAzureService targets an Azure OpenAI resource. model names the
// deployment.
func NewAzureService(endpoint, apiKey, apiVersion, model string, maxTokens int, debug *debug.Logger, opts ...option.RequestOption) *Service {
	opts = append([]option.RequestOption{
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	}, opts...)
	client := openai.NewClient(opts...)
	return &Service{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		system:    "az.ai.openai",
		debug:     debug,
		tracer:    otel.Tracer("llm-service"),
	}
}

func (s *Service) Complete(ctx context.Context, messages []Message, tools []ToolSpec) (*Reply, error) {
	operationType := "agent_turn"
	if opType := getOperationType(ctx); opType != "" {
		operationType = opType
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		s.debug.Printf("NO PARENT: ctx missing active span for %s", operationType)
	} else {
		s.debug.Printf("Complete trace=%s parentSpan=%s op=%s", sc.TraceID(), sc.SpanID(), operationType)
	}

	ctx, span := s.tracer.Start(ctx, operationType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.GenerationAttributes(s.system, s.model, s.maxTokens, len(tools))...,
		),
	)
	defer span.End()

	span.SetAttributes(attribute.String("game.operation_type", operationType))
	CopyGameContextToSpan(ctx, span)

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(s.model),
		Messages: toOpenAIMessages(messages),
	}
	if s.maxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(int64(s.maxTokens))
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		})
	}

	s.debug.Printf("LLM Completion - messages: %d, tools: %d, model: %s", len(messages), len(tools), s.model)

	startTime := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		s.debug.Printf("LLM Completion error: %v", err)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.RecordError(ErrNoChoices)
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	reply := &Reply{
		Content: msg.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	duration := time.Since(startTime)
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", duration.Milliseconds()),
		attribute.Int("gen_ai.response.tool_calls", len(reply.ToolCalls)),
		attribute.String("langfuse.observation.output", reply.Content),
		attribute.String("langfuse.observation.model.name", s.model),
	)
	span.AddEvent("gen_ai.choice", trace.WithAttributes(
		attribute.String("gen_ai.system", s.system),
		attribute.String("finish_reason", resp.Choices[0].FinishReason),
		attribute.String("content", reply.Content),
	))

	s.debug.Printf("LLM Completion response length: %d, tool calls: %d, tokens: %d/%d, duration: %v",
		len(reply.Content), len(reply.ToolCalls), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, duration)

	return reply, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

func WithOperationType(ctx context.Context, opType string) context.Context {
	return context.WithValue(ctx, operationTypeKey, opType)
}

// WithGameContext merges gameCtx into any game context already on ctx.
func WithGameContext(ctx context.Context, gameCtx map[string]interface{}) context.Context {
	if existing, ok := ctx.Value(gameContextKey).(map[string]interface{}); ok && existing != nil {
		merged := make(map[string]interface{}, len(existing)+len(gameCtx))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range gameCtx {
			merged[k] = v
		}
		return context.WithValue(ctx, gameContextKey, merged)
	}
	return context.WithValue(ctx, gameContextKey, gameCtx)
}

func getOperationType(ctx context.Context) string {
	if opType, ok := ctx.Value(operationTypeKey).(string); ok {
		return opType
	}
	return ""
}

func getGameContext(ctx context.Context) map[string]interface{} {
	if gameCtx, ok := ctx.Value(gameContextKey).(map[string]interface{}); ok {
		return gameCtx
	}
	return nil
}

// CopyGameContextToSpan attaches the game context on ctx to an existing span.
func CopyGameContextToSpan(ctx context.Context, span trace.Span) {
	if span == nil {
		return
	}
	for k, v := range getGameContext(ctx) {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String("game."+k, val))
		case int:
			span.SetAttributes(attribute.Int("game."+k, val))
		case []string:
			span.SetAttributes(attribute.StringSlice("game."+k, val))
		}
	}
}
