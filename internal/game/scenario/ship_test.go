package scenario_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentescape/internal/crew"
	"agentescape/internal/game"
	"agentescape/internal/game/scenario"
)

func newShip(t *testing.T) (*scenario.Ship, *game.Player) {
	t.Helper()
	ctx := context.Background()
	records, err := crew.Open(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { records.Close() })

	ship, err := scenario.NewShip(ctx, records)
	require.NoError(t, err)

	player := game.NewPlayer()
	require.NoError(t, ship.Board(player))
	return ship, player
}

func dispatch(ship *scenario.Ship, name, args string) string {
	return ship.World.Dispatch(context.Background(), name, args)
}

func TestBriefing(t *testing.T) {
	ship, _ := newShip(t)

	assert.Contains(t, ship.Briefing.System, "intelligent agent")
	assert.Contains(t, ship.Briefing.Goal, "generator in the Engine Room")
	assert.Contains(t, ship.Briefing.Nudge, "Your task is not completed.")
}

func TestWalkthroughReachesGoal(t *testing.T) {
	ship, player := newShip(t)

	assert.Contains(t, dispatch(ship, "query_crew_database", `{"query":"SELECT * FROM crew WHERE role = 'Captain'"}`), "23")
	assert.Contains(t, dispatch(ship, "query_crew_database", `{"query":"SELECT birthday FROM crew WHERE role = 'Chief Engineer'"}`), "1987-03-14")

	assert.Contains(t, dispatch(ship, "move_to", `{"location":"Storage Bay"}`), "You move to the Storage Bay.")
	assert.Contains(t, dispatch(ship, "set_lights", `{"on":true}`), "lights stutter on")
	assert.Equal(t, "The locker clicks open. Something is inside.", dispatch(ship, "open_locker", `{"combination":23}`))
	assert.Equal(t, "You have found Rope, Fuse.", dispatch(ship, "look_for_items", `{}`))

	dispatch(ship, "move_to", `{"location":"Control Room"}`)
	dispatch(ship, "move_to", `{"location":"Engine Room"}`)
	assert.Contains(t, dispatch(ship, "install_fuse", `{}`), "You slot the fuse")
	assert.False(t, ship.Goal(ship.World), "goal holds only once the flag is set")

	assert.Contains(t, dispatch(ship, "activate_generator", `{"access_code":"1987-03-14"}`), "roars to life")
	assert.True(t, ship.Goal(ship.World))
	assert.False(t, player.Inventory().Has(scenario.Fuse))
	assert.Equal(t, "The generator is already running.", dispatch(ship, "activate_generator", `{"access_code":"19870314"}`))
}

func TestLookForItemsTwice(t *testing.T) {
	ship, player := newShip(t)

	assert.Equal(t, "You have found Datapad.", dispatch(ship, "look_for_items", `{}`))
	assert.Equal(t, "You search the Control Room but find nothing useful.", dispatch(ship, "look_for_items", `{}`))
	assert.Equal(t, []string{"Datapad"}, player.Inventory().Items())
	assert.Equal(t, "You are carrying: Datapad.", dispatch(ship, "check_inventory", `{}`))
}

func TestMoveToNonAdjacent(t *testing.T) {
	ship, player := newShip(t)
	dispatch(ship, "move_to", `{"location":"Engine Room"}`)

	got := dispatch(ship, "move_to", `{"location":"Storage Bay"}`)

	assert.Equal(t, `You can't get to "Storage Bay" from the Engine Room. You can move to: Control Room.`, got)
	assert.Equal(t, scenario.EngineRoom, player.Location())

	got = dispatch(ship, "move_to", `{"location":"Bridge"}`)
	assert.Contains(t, got, "You can move to: Control Room.")
	assert.Equal(t, scenario.EngineRoom, player.Location())
}

func TestMoveChangesToolset(t *testing.T) {
	ship, player := newShip(t)

	got := dispatch(ship, "install_fuse", `{}`)
	assert.Contains(t, got, `no action "install_fuse" in the Control Room`)

	dispatch(ship, "move_to", `{"location":"Engine Room"}`)
	assert.Equal(t, scenario.EngineRoom, player.Location())
	assert.Equal(t, "You have no fuse to install.", dispatch(ship, "install_fuse", `{}`))
}

func TestPreconditionsDoNotMutate(t *testing.T) {
	ship, player := newShip(t)
	engine, _ := ship.World.Location(scenario.EngineRoom)
	bay, _ := ship.World.Location(scenario.StorageBay)

	dispatch(ship, "move_to", `{"location":"Engine Room"}`)
	assert.Equal(t, "You have no fuse to install.", dispatch(ship, "install_fuse", `{}`))
	assert.False(t, engine.Flag(scenario.FlagFuseInstalled))
	assert.Equal(t, "The console is dead. The generator has no fuse.", dispatch(ship, "activate_generator", `{"access_code":"1987-03-14"}`))
	assert.False(t, engine.Flag(scenario.FlagGeneratorActivated))

	dispatch(ship, "move_to", `{"location":"Control Room"}`)
	dispatch(ship, "move_to", `{"location":"Storage Bay"}`)
	assert.Contains(t, dispatch(ship, "look_for_items", `{}`), "in the dark")
	assert.Equal(t, []string{"Rope"}, bay.Items())
	assert.Zero(t, player.Inventory().Len())

	assert.Equal(t, "You can't see the keypad in the dark.", dispatch(ship, "open_locker", `{"combination":23}`))
	dispatch(ship, "set_lights", `{"on":true}`)
	assert.Equal(t, "The keypad buzzes. Wrong combination.", dispatch(ship, "open_locker", `{"combination":12}`))
	assert.False(t, bay.Flag(scenario.FlagLockerOpen))
	assert.Equal(t, []string{"Rope"}, bay.Items())
}

func TestWrongAccessCode(t *testing.T) {
	ship, player := newShip(t)
	engine, _ := ship.World.Location(scenario.EngineRoom)
	player.Inventory().Add(scenario.Fuse)

	dispatch(ship, "move_to", `{"location":"Engine Room"}`)
	dispatch(ship, "install_fuse", `{}`)

	assert.Equal(t, "ACCESS DENIED.", dispatch(ship, "activate_generator", `{"access_code":"0000"}`))
	assert.False(t, engine.Flag(scenario.FlagGeneratorActivated))
	assert.Contains(t, dispatch(ship, "activate_generator", `{"access_code":7}`), "invalid arguments")
}

func TestLightsToggle(t *testing.T) {
	ship, _ := newShip(t)
	dispatch(ship, "move_to", `{"location":"Storage Bay"}`)

	assert.Contains(t, dispatch(ship, "look_around", `{}`), "pitch black")
	assert.Equal(t, "Nothing changes.", dispatch(ship, "set_lights", `{"on":false}`))
	dispatch(ship, "set_lights", `{"on":true}`)
	assert.Contains(t, dispatch(ship, "look_around", `{}`), "CAPT. Okafor")
	assert.Contains(t, dispatch(ship, "set_lights", `{"on":false}`), "The lights go out.")
}

type brokenRecords struct {
	member crew.Member
	err    error
}

func (b brokenRecords) Query(ctx context.Context, query string) (string, error) {
	return "", b.err
}

func (b brokenRecords) Member(ctx context.Context, role string) (crew.Member, error) {
	return b.member, nil
}

func TestQueryFailureBecomesText(t *testing.T) {
	ship, err := scenario.NewShip(context.Background(), brokenRecords{
		member: crew.Member{FirstName: "A", LastName: "B", Birthday: "2000-01-01", YearsOfService: 1},
		err:    errors.New("disk on fire"),
	})
	require.NoError(t, err)
	require.NoError(t, ship.Board(game.NewPlayer()))

	got := dispatch(ship, "query_crew_database", `{"query":"SELECT 1"}`)

	assert.Equal(t, "The terminal rejects the query: disk on fire", got)
}

func TestQueryRejectsWritesAsText(t *testing.T) {
	ship, _ := newShip(t)

	got := dispatch(ship, "query_crew_database", `{"query":"DROP TABLE crew"}`)

	assert.Contains(t, got, "The terminal rejects the query")
	assert.Contains(t, dispatch(ship, "query_crew_database", `{"query":"SELECT COUNT(*) FROM crew"}`), "12")
}
