package game

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatch runs the named action of the actor's current location with the
// raw JSON arguments the model produced. Every outcome, including an unknown
// name, bad arguments or a panicking handler, comes back as the text the
// model will read; nothing in the world changes unless the handler runs.
func (w *World) Dispatch(ctx context.Context, name, arguments string) (result string) {
	ctx, span := otel.Tracer("game-dispatch").Start(ctx, "game.dispatch",
		trace.WithAttributes(attribute.String("tool_name", name)),
	)
	defer span.End()

	here := w.Here()
	if here == nil {
		span.SetAttributes(attribute.String("error_type", "no_location"))
		return "Error: you are not in any location."
	}
	span.SetAttributes(attribute.String("location", here.Name))

	action, ok := here.Actions.Lookup(name)
	if !ok {
		span.SetAttributes(attribute.String("error_type", "tool_not_found"))
		return fmt.Sprintf("Error: there is no action %q in the %s. Available actions: %s.",
			name, here.Name, strings.Join(here.Actions.Names(), ", "))
	}

	args, err := bindArgs(action.Params, arguments)
	if err != nil {
		span.SetAttributes(attribute.String("error_type", "validation_failed"))
		span.RecordError(err)
		return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
	}

	call := Call{World: w, Args: args}
	if action.NeedsAgent {
		call.Agent = w.actor
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			span.SetAttributes(attribute.String("error_type", "execution_failed"))
			span.RecordError(err)
			result = fmt.Sprintf("Error: %s failed: %v", name, err)
		}
	}()

	result = action.Handler(ctx, call)
	span.SetAttributes(attribute.String("result", result))
	return result
}
