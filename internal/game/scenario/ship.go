// Package scenario builds the derelict ship the agent has to bring back to
// power.
package scenario

import (
	"context"
	"fmt"

	"agentescape/internal/game"
)

const (
	// Name labels runs of this scenario in traces.
	Name = "derelict-ship"

	ControlRoom = "Control Room"
	StorageBay  = "Storage Bay"
	EngineRoom  = "Engine Room"

	Start = ControlRoom
	Fuse  = "Fuse"

	FlagLightsOn           = "lights_on"
	FlagLockerOpen         = "locker_open"
	FlagFuseInstalled      = "fuse_installed"
	FlagGeneratorActivated = "generator_activated"
)

type Ship struct {
	World    *game.World
	Goal     game.Goal
	Briefing game.Briefing
}

// NewShip builds a fresh ship. The locker combination and the generator
// code are taken from the crew records.
func NewShip(ctx context.Context, records CrewRecords) (*Ship, error) {
	captain, err := records.Member(ctx, "Captain")
	if err != nil {
		return nil, fmt.Errorf("failed to load captain record: %w", err)
	}
	engineer, err := records.Member(ctx, "Chief Engineer")
	if err != nil {
		return nil, fmt.Errorf("failed to load chief engineer record: %w", err)
	}

	briefing, err := loadBriefing()
	if err != nil {
		return nil, err
	}

	world := game.NewWorld()
	for _, l := range []*game.Location{
		newControlRoom(records),
		newStorageBay(captain),
		newEngineRoom(engineer),
	} {
		if err := world.AddLocation(l); err != nil {
			return nil, err
		}
	}
	if err := world.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ship layout: %w", err)
	}

	return &Ship{
		World:    world,
		Goal:     game.FlagSet(EngineRoom, FlagGeneratorActivated),
		Briefing: briefing,
	}, nil
}

// Board attaches actor at the starting location.
func (s *Ship) Board(actor game.Actor) error {
	return s.World.Attach(actor, Start)
}
