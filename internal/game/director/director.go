// Package director runs the control loop that drives the agent until the
// goal is met or its stall budget is spent.
package director

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agentescape/internal/debug"
	"agentescape/internal/game"
	"agentescape/internal/game/actors"
	"agentescape/internal/llm"
	"agentescape/internal/logging"
	"agentescape/internal/observability"
)

type Outcome string

const (
	Success   Outcome = "success"
	Exhausted Outcome = "exhausted"
)

const (
	ReasonGoal        = "goal reached"
	ReasonStalled     = "nudge budget spent"
	ReasonTurnLimit   = "turn limit reached"
	ReasonInterrupted = "interrupted"
)

type Config struct {
	MaxNudges   int
	MaxTurns    int
	TurnTimeout time.Duration

	// Provider and Model are only recorded.
	Provider string
	Model    string
}

type Result struct {
	RunID   string
	Outcome Outcome
	Reason  string
	Turns   int
	Nudges  int
}

// Recorder persists runs and turns. *logging.RunLogger satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, run logging.Run) error
	LogTurn(ctx context.Context, turn logging.Turn) error
	FinishRun(ctx context.Context, runID, outcome, reason string, turns, nudges int) error
}

// Director owns one run: the world, its single agent and the briefing the
// agent starts from.
type Director struct {
	agent    *actors.Agent
	world    *game.World
	goal     game.Goal
	briefing game.Briefing
	config   Config

	debug    *debug.Logger
	report   Reporter
	recorder Recorder
}

type Option func(*Director)

func WithReporter(r Reporter) Option {
	return func(d *Director) { d.report = r }
}

func WithRecorder(r Recorder) Option {
	return func(d *Director) { d.recorder = r }
}

func WithDebug(l *debug.Logger) Option {
	return func(d *Director) { d.debug = l }
}

func New(agent *actors.Agent, world *game.World, goal game.Goal, briefing game.Briefing, config Config, opts ...Option) *Director {
	if config.MaxNudges <= 0 {
		config.MaxNudges = 3
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = 100
	}
	d := &Director{
		agent:    agent,
		world:    world,
		goal:     goal,
		briefing: briefing,
		config:   config,
		report:   func(Event) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drives turns until the goal holds, MaxNudges consecutive turns have
// stalled, or MaxTurns turns have been played. The goal is checked before
// every turn. An error is only returned when ctx ends or the world has no
// agent; model failures count as stalls.
func (d *Director) Run(ctx context.Context) (Result, error) {
	here := d.world.Here()
	if here == nil {
		return Result{}, game.ErrNoActor
	}

	result := Result{RunID: uuid.NewString()}
	ctx = observability.WithRun(ctx, result.RunID)
	ctx, span := otel.Tracer("director").Start(ctx, "director.run",
		trace.WithAttributes(observability.RunAttributes(result.RunID)...),
	)
	defer span.End()

	if d.agent.Transcript().Len() == 0 {
		d.agent.Say(
			llm.SystemMessage(d.briefing.System),
			llm.UserMessage(d.briefing.Goal),
			llm.UserMessage(here.Describe()),
		)
	}
	d.world.ResetNudges()

	if d.recorder != nil {
		err := d.recorder.StartRun(ctx, logging.Run{ID: result.RunID, Provider: d.config.Provider, Model: d.config.Model})
		if err != nil {
			d.debug.Printf("run log disabled: %v", err)
			d.recorder = nil
		}
	}
	d.report(Event{Kind: EventStart, RunID: result.RunID, Location: here.Name, Text: here.Describe()})

	var runErr error
	for {
		if d.goal(d.world) {
			result.Outcome, result.Reason = Success, ReasonGoal
			break
		}
		if err := ctx.Err(); err != nil {
			result.Outcome, result.Reason = Exhausted, ReasonInterrupted
			runErr = err
			break
		}
		if d.world.Nudges() >= d.config.MaxNudges {
			result.Outcome, result.Reason = Exhausted, ReasonStalled
			break
		}
		if result.Turns >= d.config.MaxTurns {
			result.Outcome, result.Reason = Exhausted, ReasonTurnLimit
			break
		}

		result.Turns++
		if !d.playTurn(ctx, result.RunID, result.Turns) {
			result.Turns--
		}
	}
	result.Nudges = d.world.Nudges()

	span.SetAttributes(
		attribute.String("game.outcome", string(result.Outcome)),
		attribute.String("game.reason", result.Reason),
		attribute.Int("game.turns", result.Turns),
		attribute.Int("game.nudges", result.Nudges),
	)
	if result.Outcome != Success {
		span.SetStatus(codes.Error, result.Reason)
	}

	if d.recorder != nil {
		// The run context may already be done; the final row is still wanted.
		err := d.recorder.FinishRun(context.WithoutCancel(ctx), result.RunID, string(result.Outcome), result.Reason, result.Turns, result.Nudges)
		if err != nil {
			d.debug.Printf("failed to finish run log: %v", err)
		}
	}
	d.report(Event{Kind: EventDone, RunID: result.RunID, Turn: result.Turns, Nudges: result.Nudges, Result: &result})
	d.debug.Printf("run %s finished: %s (%s) after %d turns\n%s", result.RunID, result.Outcome, result.Reason, result.Turns, d.agent.Transcript())
	return result, runErr
}

// playTurn runs one agent turn under the turn timeout and applies the stall
// policy to its outcome. It reports false, leaving the transcript and nudge
// count alone, when ctx ended while the model was still answering.
func (d *Director) playTurn(ctx context.Context, runID string, number int) bool {
	ctx = observability.WithTurn(ctx, number)
	ctx, span := otel.Tracer("director").Start(ctx, fmt.Sprintf("turn-%d", number))
	defer span.End()
	ctx = llm.WithOperationType(ctx, "agent_turn")

	turnCtx := ctx
	if d.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, d.config.TurnTimeout)
		defer cancel()
	}

	location := d.world.Here().Name
	start := time.Now()
	turn, err := d.agent.Act(turnCtx, d.world)
	elapsed := time.Since(start)
	if err != nil && ctx.Err() != nil {
		span.SetAttributes(attribute.String("error_type", "interrupted"))
		d.debug.Printf("turn %d interrupted: %v", number, err)
		return false
	}

	reason := ""
	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		reason = "turn timed out"
	case err != nil:
		reason = fmt.Sprintf("model error: %v", err)
	case turn.Stalled():
		reason = "no tool calls"
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error_type", "stalled_turn"))
		d.debug.Printf("turn %d failed: %v", number, err)
	}
	if turn.Location == "" {
		turn.Location = location
	}

	event := Event{Kind: EventTurn, RunID: runID, Turn: number, Location: turn.Location, Text: turn.Text, Calls: turn.Calls}
	if reason != "" {
		d.agent.Say(llm.UserMessage(d.briefing.Nudge))
		event.Kind = EventStall
		event.Reason = reason
		event.Err = err
		event.Nudges = d.world.Nudge()
	} else {
		d.world.ResetNudges()
	}
	span.SetAttributes(
		attribute.Int("game.tool_calls", len(turn.Calls)),
		attribute.Int("game.nudges", d.world.Nudges()),
		attribute.String("game.location", turn.Location),
	)
	d.report(event)

	if d.recorder != nil {
		record := logging.Turn{
			RunID:        runID,
			Number:       number,
			Location:     turn.Location,
			Text:         turn.Text,
			Stalled:      reason != "",
			Reason:       reason,
			InputTokens:  turn.Usage.InputTokens,
			OutputTokens: turn.Usage.OutputTokens,
			Duration:     elapsed,
		}
		for _, c := range turn.Calls {
			record.Calls = append(record.Calls, logging.Call{ID: c.Call.ID, Name: c.Call.Name, Arguments: c.Call.Arguments, Result: c.Result})
		}
		if err := d.recorder.LogTurn(context.WithoutCancel(ctx), record); err != nil {
			d.debug.Printf("failed to log turn %d: %v", number, err)
		}
	}
	return true
}
