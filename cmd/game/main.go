// Command game drops a model-driven agent aboard a derelict ship and runs it
// until main power is restored or it runs out of nudges.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agentescape/internal/config"
	"agentescape/internal/debug"
	"agentescape/internal/game/director"
	"agentescape/internal/game/scenario"
	"agentescape/internal/llm"
	"agentescape/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debugLogger := debug.NewLogger(cfg.Debug)

	traceConfig := observability.LoadConfigFromEnv()
	traceConfig.Provider = cfg.Model.Provider
	traceConfig.Model = cfg.Model.Model
	traceConfig.Scenario = scenario.Name
	tracerProvider, err := observability.InitTracing(ctx, traceConfig)
	if err != nil {
		debugLogger.Printf("Failed to initialize tracing: %v", err)
	} else if tracerProvider.IsEnabled() {
		debugLogger.Println("OpenTelemetry tracing initialized and enabled")
		defer tracerProvider.Shutdown(context.Background())
	}

	model, err := llm.New(cfg.Model, debugLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app, cleanup, err := createApp(ctx, cfg, model, debugLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	var result director.Result
	if cfg.TUI {
		result, err = app.RunTUI(ctx)
	} else {
		result, err = app.RunConsole(ctx, os.Stdout)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if cfg.TUI && result.Outcome != "" {
		fmt.Printf("%s: %s after %d turns\n", result.Outcome, result.Reason, result.Turns)
	}
}
