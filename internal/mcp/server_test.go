package mcp_test

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentescape/internal/crew"
	"agentescape/internal/game"
	"agentescape/internal/game/scenario"
	worldmcp "agentescape/internal/mcp"
)

func connect(t *testing.T) (*mcp.ClientSession, *worldmcp.WorldServer) {
	t.Helper()
	ctx := context.Background()

	records, err := crew.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { records.Close() })
	ship, err := scenario.NewShip(ctx, records)
	require.NoError(t, err)
	require.NoError(t, ship.Board(game.NewPlayer()))

	ws := worldmcp.NewWorldServer(ship.World, ship.Goal, ship.Briefing.Goal, nil)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := ws.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs, ws
}

func toolNames(t *testing.T, cs *mcp.ClientSession) []string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestToolsFollowLocation(t *testing.T) {
	cs, ws := connect(t)

	assert.ElementsMatch(t, []string{"look_around", "look_for_items", "check_inventory", "move_to", "query_crew_database"}, toolNames(t, cs))

	res := call(t, cs, "move_to", map[string]any{"location": "Storage Bay"})
	assert.False(t, res.IsError)
	assert.Contains(t, text(res), "You move to the Storage Bay.")

	names := toolNames(t, cs)
	assert.Contains(t, names, "set_lights")
	assert.Contains(t, names, "open_locker")
	assert.NotContains(t, names, "query_crew_database")
	assert.ElementsMatch(t, names, ws.Advertised())

	// The old location's tool is gone.
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "query_crew_database", Arguments: map[string]any{"query": "SELECT 1"}})
	assert.Error(t, err)
}

func TestSchemaAndErrors(t *testing.T) {
	cs, _ := connect(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var move *mcp.Tool
	for _, tool := range res.Tools {
		if tool.Name == "move_to" {
			move = tool
		}
	}
	require.NotNil(t, move)
	schema, ok := move.InputSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"location"}, schema["required"])

	bad := call(t, cs, "move_to", map[string]any{"destination": "Engine Room"})
	assert.True(t, bad.IsError)
	assert.Contains(t, text(bad), "invalid arguments for move_to")

	// Game-rule failures are ordinary results.
	far := call(t, cs, "move_to", map[string]any{"location": "Bridge"})
	assert.False(t, far.IsError)
	assert.Contains(t, text(far), "You can't get to")
}

func TestPlayToGoal(t *testing.T) {
	cs, _ := connect(t)

	call(t, cs, "move_to", map[string]any{"location": "Storage Bay"})
	call(t, cs, "set_lights", map[string]any{"on": true})
	call(t, cs, "open_locker", map[string]any{"combination": 23})
	call(t, cs, "look_for_items", nil)
	call(t, cs, "move_to", map[string]any{"location": "Control Room"})
	call(t, cs, "move_to", map[string]any{"location": "Engine Room"})
	call(t, cs, "install_fuse", nil)

	res := call(t, cs, "activate_generator", map[string]any{"access_code": "1987-03-14"})

	require.Len(t, res.Content, 2)
	assert.Contains(t, text(res), "roars to life")
	assert.Equal(t, worldmcp.GoalReached, res.Content[1].(*mcp.TextContent).Text)
}
