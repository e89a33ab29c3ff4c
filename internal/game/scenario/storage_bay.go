package scenario

import (
	"context"
	"fmt"

	"agentescape/internal/crew"
	"agentescape/internal/game"
)

func newStorageBay(captain crew.Member) *game.Location {
	l := game.NewLocation(StorageBay,
		fmt.Sprintf("Crates are strapped to the walls. A personal locker stencilled \"CAPT. %s\" "+
			"has a numeric keypad. A scratched note beside it reads \"combination: my years of service\".",
			captain.LastName),
		ControlRoom,
	)
	l.AddItems("Rope")
	l.Actions.MustRegister(
		darkLookAround(),
		setLights(),
		darkLookForItems(),
		openLocker(captain.YearsOfService),
		checkInventory(),
		moveTo(),
	)
	return l
}

const darkness = "It is pitch black in here. You can feel a light switch by the door."

func darkLookAround() game.Action {
	a := lookAround()
	a.Handler = func(ctx context.Context, call game.Call) string {
		here := call.World.Here()
		if !here.Flag(FlagLightsOn) {
			return darkness
		}
		return here.Describe()
	}
	return a
}

func darkLookForItems() game.Action {
	a := lookForItems()
	a.Handler = func(ctx context.Context, call game.Call) string {
		if !call.World.Here().Flag(FlagLightsOn) {
			return "You fumble around in the dark but can't find anything. " + darkness
		}
		return collectItems(ctx, call)
	}
	return a
}

func setLights() game.Action {
	return game.Action{
		Name:        "set_lights",
		Description: "Flip the light switch by the door.",
		Params: []game.Param{
			{Name: "on", Type: game.Boolean, Description: "true to switch the lights on, false to switch them off."},
		},
		Handler: func(ctx context.Context, call game.Call) string {
			here := call.World.Here()
			on := call.Args.Bool("on")
			if here.Flag(FlagLightsOn) == on {
				return "Nothing changes."
			}
			here.SetFlag(FlagLightsOn, on)
			if on {
				return "The lights stutter on.\n" + here.Describe()
			}
			return "The lights go out. " + darkness
		},
	}
}

func openLocker(combination int) game.Action {
	return game.Action{
		Name:        "open_locker",
		Description: "Enter a combination on the captain's locker keypad.",
		Params: []game.Param{
			{Name: "combination", Type: game.Integer, Description: "The numeric combination."},
		},
		Handler: func(ctx context.Context, call game.Call) string {
			here := call.World.Here()
			switch {
			case !here.Flag(FlagLightsOn):
				return "You can't see the keypad in the dark."
			case here.Flag(FlagLockerOpen):
				return "The locker is already open."
			case call.Args.Int("combination") != int64(combination):
				return "The keypad buzzes. Wrong combination."
			}
			here.SetFlag(FlagLockerOpen, true)
			here.AddItems(Fuse)
			return "The locker clicks open. Something is inside."
		},
	}
}
