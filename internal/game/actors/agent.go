// Package actors holds the model-driven agent that plays the game.
package actors

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agentescape/internal/debug"
	"agentescape/internal/game"
	"agentescape/internal/llm"
)

// Agent is the single actor of a run. It owns its inventory, its position
// and the transcript it shows the model.
type Agent struct {
	*game.Player

	model      llm.ChatModel
	transcript *Transcript
	debug      *debug.Logger
}

func NewAgent(model llm.ChatModel, debug *debug.Logger) *Agent {
	return &Agent{
		Player:     game.NewPlayer(),
		model:      model,
		transcript: NewTranscript(),
		debug:      debug,
	}
}

func (a *Agent) Transcript() *Transcript {
	return a.transcript
}

// Say appends user (or system) turns to the transcript.
func (a *Agent) Say(messages ...llm.Message) {
	a.transcript.Append(messages...)
}

// Dispatched is one tool call together with the text it produced.
type Dispatched struct {
	Call   llm.ToolCall
	Result string
}

// TurnResult describes one completed model turn.
type TurnResult struct {
	Location string
	Text     string
	Calls    []Dispatched
	Usage    llm.Usage
}

// Stalled reports whether the model asked for nothing.
func (r TurnResult) Stalled() bool {
	return len(r.Calls) == 0
}

// Tools lists the actions of here as model tool specs.
func Tools(here *game.Location) []llm.ToolSpec {
	if here == nil {
		return nil
	}
	actions := here.Actions.All()
	specs := make([]llm.ToolSpec, 0, len(actions))
	for _, action := range actions {
		specs = append(specs, llm.ToolSpec{
			Name:        action.Name,
			Description: action.Description,
			Parameters:  action.SchemaMap(),
		})
	}
	return specs
}

// Act runs one turn: ask the model, record its reply, then dispatch every
// tool call in order, recording each result before the next call runs.
// A model error leaves the transcript untouched.
func (a *Agent) Act(ctx context.Context, world *game.World) (TurnResult, error) {
	here := world.Here()
	if here == nil {
		return TurnResult{}, game.ErrNoActor
	}

	ctx, span := otel.Tracer("agent").Start(ctx, "agent.turn",
		trace.WithAttributes(
			attribute.String("game.location", here.Name),
			attribute.Int("game.transcript_length", a.transcript.Len()),
		),
	)
	defer span.End()
	llm.CopyGameContextToSpan(ctx, span)

	ctx = llm.WithGameContext(ctx, map[string]interface{}{
		"location":  here.Name,
		"inventory": a.Inventory().Items(),
	})

	reply, err := a.model.Complete(ctx, a.transcript.Messages(), Tools(here))
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error_type", "model_error"))
		return TurnResult{}, fmt.Errorf("failed to get model turn: %w", err)
	}

	a.transcript.Append(llm.AssistantMessage(reply.Content, reply.ToolCalls...))
	result := TurnResult{Location: here.Name, Text: reply.Content, Usage: reply.Usage}

	for _, call := range reply.ToolCalls {
		output := world.Dispatch(ctx, call.Name, call.Arguments)
		a.debug.Printf("tool %s(%s) -> %s", call.Name, call.Arguments, output)
		a.transcript.Append(llm.ToolMessage(output, call.ID))
		result.Calls = append(result.Calls, Dispatched{Call: call, Result: output})
	}

	span.SetAttributes(attribute.Int("gen_ai.response.tool_calls", len(result.Calls)))
	return result, nil
}
