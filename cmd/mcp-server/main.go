// Command mcp-server serves a fresh derelict ship over MCP on stdio, so any
// MCP client can try to restore its power.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"agentescape/internal/crew"
	"agentescape/internal/debug"
	"agentescape/internal/game"
	"agentescape/internal/game/scenario"
	worldmcp "agentescape/internal/mcp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debugMode := os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true"
	debugLogger := debug.NewLogger(debugMode)

	if err := run(ctx, debugLogger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, debugLogger *debug.Logger) error {
	records, err := crew.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to load crew records: %w", err)
	}
	defer records.Close()

	ship, err := scenario.NewShip(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to build ship: %w", err)
	}
	if err := ship.Board(game.NewPlayer()); err != nil {
		return fmt.Errorf("failed to board player: %w", err)
	}

	server := worldmcp.NewWorldServer(ship.World, ship.Goal, ship.Briefing.Goal, debugLogger)
	debugLogger.Printf("serving %s over stdio with tools %v", scenario.Start, server.Advertised())
	return server.Run(ctx, &mcp.StdioTransport{})
}
