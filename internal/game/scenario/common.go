package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agentescape/internal/game"
)

func lookAround() game.Action {
	return game.Action{
		Name:        "look_around",
		Description: "Describe your current location and the places you can reach from it.",
		Handler: func(ctx context.Context, call game.Call) string {
			return call.World.Here().Describe()
		},
	}
}

func lookForItems() game.Action {
	return game.Action{
		Name:        "look_for_items",
		Description: "Search the current location and pick up anything useful.",
		NeedsAgent:  true,
		Handler:     collectItems,
	}
}

func collectItems(ctx context.Context, call game.Call) string {
	here := call.World.Here()
	found := here.TakeItems()
	if len(found) == 0 {
		return fmt.Sprintf("You search the %s but find nothing useful.", here.Name)
	}
	call.Agent.Inventory().Add(found...)
	return fmt.Sprintf("You have found %s.", strings.Join(found, ", "))
}

func checkInventory() game.Action {
	return game.Action{
		Name:        "check_inventory",
		Description: "List the items you are carrying.",
		NeedsAgent:  true,
		Handler: func(ctx context.Context, call game.Call) string {
			return fmt.Sprintf("You are carrying: %s.", call.Agent.Inventory())
		},
	}
}

func moveTo() game.Action {
	return game.Action{
		Name:        "move_to",
		Description: "Move to an adjacent location.",
		Params: []game.Param{
			{Name: "location", Type: game.String, Description: "Name of the adjacent location, for example \"Engine Room\"."},
		},
		Handler: func(ctx context.Context, call game.Call) string {
			here := call.World.Here()
			dest := call.Args.String("location")
			if !here.IsAdjacent(dest) {
				return fmt.Sprintf("You can't get to %q from the %s. You can move to: %s.",
					dest, here.Name, strings.Join(here.Adjacent, ", "))
			}
			if err := call.World.MoveTo(dest); err != nil {
				if errors.Is(err, game.ErrUnknownLocation) {
					return fmt.Sprintf("Error: the way to %s leads nowhere.", dest)
				}
				return fmt.Sprintf("Error: %v", err)
			}
			arrived, _ := call.World.Location(dest)
			return "You move to the " + dest + ".\n" + arrived.Describe()
		},
	}
}
