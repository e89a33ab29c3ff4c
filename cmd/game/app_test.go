package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentescape/internal/config"
	"agentescape/internal/game/director"
	"agentescape/internal/llm"
	"agentescape/internal/llm/llmtest"
	"agentescape/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Model:       llm.Options{Provider: llm.ProviderOpenAI, Model: "scripted"},
		MaxNudges:   3,
		MaxTurns:    40,
		TurnTimeout: time.Second,
		RunLogPath:  filepath.Join(t.TempDir(), "runs.db"),
	}
}

func TestConsoleRunRestoresPower(t *testing.T) {
	model := llmtest.NewModel(
		llmtest.Calls(
			llmtest.Call("look_around", `{}`),
			llmtest.Call("query_crew_database", `{"query":"SELECT role, last_name, birthday, years_of_service FROM crew WHERE role IN ('Captain', 'Chief Engineer')"}`),
		),
		llmtest.Calls(llmtest.Call("move_to", `{"location":"Storage Bay"}`)),
		llmtest.Text("It is dark. What now?"),
		llmtest.Calls(
			llmtest.Call("set_lights", `{"on":true}`),
			llmtest.Call("open_locker", `{"combination":23}`),
			llmtest.Call("look_for_items", `{}`),
		),
		llmtest.Calls(llmtest.Call("move_to", `{"location":"Control Room"}`)),
		llmtest.Calls(llmtest.Call("move_to", `{"location":"Engine Room"}`)),
		llmtest.Calls(
			llmtest.Call("install_fuse", `{}`),
			llmtest.Call("activate_generator", `{"access_code":"1987-03-14"}`),
		),
	)
	cfg := testConfig(t)

	app, cleanup, err := createApp(context.Background(), cfg, model, nil)
	require.NoError(t, err)
	defer cleanup()

	var out bytes.Buffer
	result, err := app.RunConsole(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, director.Success, result.Outcome)
	assert.Equal(t, 7, result.Turns)
	assert.Equal(t, 7, model.Used())
	assert.Contains(t, out.String(), "Okafor")
	assert.Contains(t, out.String(), "stalled (no tool calls), nudge 1")
	assert.Contains(t, out.String(), "roars to life")
	assert.Contains(t, out.String(), "SUCCESS")

	// The model saw the briefing first.
	first := model.Requests[0].Messages
	require.GreaterOrEqual(t, len(first), 3)
	assert.Equal(t, llm.RoleSystem, first[0].Role)
	assert.Contains(t, first[1].Content, "generator in the Engine Room")

	rl, err := logging.NewRunLogger(cfg.RunLogPath)
	require.NoError(t, err)
	defer rl.Close()
	outcome, err := rl.Outcome(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "success", outcome)
}

func TestConsoleRunGivesUp(t *testing.T) {
	model := llmtest.NewModel(llmtest.Text("I am lost."), llmtest.Text("Still lost."), llmtest.Text("Truly lost."))
	cfg := testConfig(t)
	cfg.RunLogPath = ""

	app, cleanup, err := createApp(context.Background(), cfg, model, nil)
	require.NoError(t, err)
	defer cleanup()

	var out bytes.Buffer
	result, err := app.RunConsole(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, director.Exhausted, result.Outcome)
	assert.Equal(t, 3, result.Nudges)
	assert.Contains(t, out.String(), "FAILED: nudge budget spent")
	assert.Equal(t, 3, app.agent.Transcript().Count(llm.RoleUser, app.ship.Briefing.Nudge))
}
