// Package mcp exposes a game world over the Model Context Protocol, so any
// MCP client can play it. Only the current location's actions are listed;
// the list is refreshed after every call.
package mcp

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"agentescape/internal/debug"
	"agentescape/internal/game"
)

// GoalReached is appended to a tool result once the goal holds.
const GoalReached = "Goal reached. The task is complete."

type WorldServer struct {
	mu         sync.Mutex
	world      *game.World
	goal       game.Goal
	server     *mcp.Server
	advertised []string
	debug      *debug.Logger
}

func NewWorldServer(world *game.World, goal game.Goal, instructions string, debug *debug.Logger) *WorldServer {
	ws := &WorldServer{
		world: world,
		goal:  goal,
		debug: debug,
	}
	ws.server = mcp.NewServer(&mcp.Implementation{
		Name:    "agentescape-world",
		Version: "v1.0.0",
	}, &mcp.ServerOptions{Instructions: instructions})
	ws.sync()
	return ws
}

// Server is the underlying MCP server, for Run or Connect.
func (ws *WorldServer) Server() *mcp.Server {
	return ws.server
}

func (ws *WorldServer) Run(ctx context.Context, t mcp.Transport) error {
	return ws.server.Run(ctx, t)
}

// Advertised lists the tool names currently offered.
func (ws *WorldServer) Advertised() []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return slices.Clone(ws.advertised)
}

func (ws *WorldServer) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name
	arguments := string(req.Params.Arguments)

	ws.mu.Lock()
	output := ws.world.Dispatch(ctx, name, arguments)
	done := ws.goal != nil && ws.goal(ws.world)
	ws.mu.Unlock()

	ws.debug.Printf("mcp %s(%s) -> %s", name, arguments, output)

	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
		IsError: strings.HasPrefix(output, "Error:"),
	}
	if done {
		result.Content = append(result.Content, &mcp.TextContent{Text: GoalReached})
	}

	ws.sync()
	return result, nil
}

// sync makes the advertised tools match the current location. Notifications
// are sent by the SDK outside its own lock, so this is safe inside a handler.
func (ws *WorldServer) sync() {
	ws.mu.Lock()
	here := ws.world.Here()
	var actions []*game.Action
	if here != nil {
		actions = here.Actions.All()
	}
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name)
	}
	if slices.Equal(names, ws.advertised) {
		ws.mu.Unlock()
		return
	}
	stale := ws.advertised
	ws.advertised = names
	ws.mu.Unlock()

	if len(stale) > 0 {
		ws.server.RemoveTools(stale...)
	}
	for _, a := range actions {
		ws.server.AddTool(&mcp.Tool{
			Name:        a.Name,
			Description: a.Description,
			InputSchema: a.SchemaMap(),
		}, ws.handle)
	}
}
