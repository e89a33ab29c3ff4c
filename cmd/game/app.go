package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"agentescape/cmd/game/ui"
	"agentescape/internal/config"
	"agentescape/internal/crew"
	"agentescape/internal/debug"
	"agentescape/internal/game/actors"
	"agentescape/internal/game/director"
	"agentescape/internal/game/scenario"
	"agentescape/internal/llm"
	"agentescape/internal/logging"
)

// App is one fully wired run: a fresh ship, its agent and the optional run
// log. It is used once.
type App struct {
	config *config.Config
	ship   *scenario.Ship
	agent  *actors.Agent
	runLog *logging.RunLogger
	debug  *debug.Logger
}

func createApp(ctx context.Context, cfg *config.Config, model llm.ChatModel, debugLogger *debug.Logger) (*App, func(), error) {
	records, err := crew.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load crew records: %w", err)
	}
	cleanups := []func(){func() { records.Close() }}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	ship, err := scenario.NewShip(ctx, records)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build ship: %w", err)
	}

	agent := actors.NewAgent(model, debugLogger)
	if err := ship.Board(agent); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to board agent: %w", err)
	}

	app := &App{config: cfg, ship: ship, agent: agent, debug: debugLogger}
	if cfg.RunLogPath != "" {
		runLog, err := logging.NewRunLogger(cfg.RunLogPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize run logger: %w", err)
		}
		app.runLog = runLog
		cleanups = append(cleanups, func() { runLog.Close() })
	}

	debugLogger.Printf("ship ready: provider=%s model=%s start=%s", cfg.Model.Provider, cfg.Model.Model, scenario.Start)
	return app, cleanup, nil
}

func (a *App) director(report director.Reporter) *director.Director {
	opts := []director.Option{director.WithReporter(report), director.WithDebug(a.debug)}
	if a.runLog != nil {
		opts = append(opts, director.WithRecorder(a.runLog))
	}
	return director.New(a.agent, a.ship.World, a.ship.Goal, a.ship.Briefing, director.Config{
		MaxNudges:   a.config.MaxNudges,
		MaxTurns:    a.config.MaxTurns,
		TurnTimeout: a.config.TurnTimeout,
		Provider:    a.config.Model.Provider,
		Model:       a.config.Model.Model,
	}, opts...)
}

// RunConsole plays the game and prints progress to w.
func (a *App) RunConsole(ctx context.Context, w io.Writer) (director.Result, error) {
	return a.director(func(e director.Event) {
		for _, line := range ui.Lines(e) {
			fmt.Fprintln(w, line.Render())
		}
	}).Run(ctx)
}

// RunTUI plays the game in the background while the terminal view follows
// it. Quitting the view stops the run.
func (a *App) RunTUI(ctx context.Context) (director.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan director.Event, 16)
	type outcome struct {
		result director.Result
		err    error
	}
	done := make(chan outcome, 1)

	d := a.director(func(e director.Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	})
	go func() {
		defer close(events)
		result, err := d.Run(ctx)
		done <- outcome{result, err}
	}()

	p := tea.NewProgram(ui.NewModel(events, a.debug.Enabled()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return director.Result{}, fmt.Errorf("terminal view failed: %w", err)
	}
	cancel()
	o := <-done
	return o.result, o.err
}
