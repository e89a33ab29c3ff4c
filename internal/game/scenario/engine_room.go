package scenario

import (
	"context"
	"strings"
	"unicode"

	"agentescape/internal/crew"
	"agentescape/internal/game"
)

func newEngineRoom(engineer crew.Member) *game.Location {
	l := game.NewLocation(EngineRoom,
		"The main generator sits silent in the middle of the room. Its fuse socket is empty. "+
			"The console asks for the chief engineer's personal access code, and a sticky note on it reads "+
			"\"code = my birthday, "+initials(engineer)+"\".",
		ControlRoom,
	)
	l.Actions.MustRegister(
		lookAround(),
		lookForItems(),
		checkInventory(),
		moveTo(),
		installFuse(),
		activateGenerator(engineer.Birthday),
	)
	return l
}

func initials(m crew.Member) string {
	var b strings.Builder
	for _, name := range []string{m.FirstName, m.LastName} {
		if name != "" {
			b.WriteByte(name[0])
			b.WriteByte('.')
		}
	}
	return b.String()
}

func installFuse() game.Action {
	return game.Action{
		Name:        "install_fuse",
		Description: "Seat a fuse from your inventory in the generator's fuse socket.",
		NeedsAgent:  true,
		Handler: func(ctx context.Context, call game.Call) string {
			here := call.World.Here()
			inv := call.Agent.Inventory()
			switch {
			case here.Flag(FlagFuseInstalled):
				return "A fuse is already seated in the socket."
			case !inv.Has(Fuse):
				return "You have no fuse to install."
			}
			inv.Remove(Fuse)
			here.SetFlag(FlagFuseInstalled, true)
			return "You slot the fuse into the socket. The generator console flickers on."
		},
	}
}

func activateGenerator(birthday string) game.Action {
	want := digits(birthday)
	return game.Action{
		Name:        "activate_generator",
		Description: "Enter an access code on the generator console.",
		Params: []game.Param{
			{Name: "access_code", Type: game.String, Description: "The access code."},
		},
		Handler: func(ctx context.Context, call game.Call) string {
			here := call.World.Here()
			switch {
			case !here.Flag(FlagFuseInstalled):
				return "The console is dead. The generator has no fuse."
			case here.Flag(FlagGeneratorActivated):
				return "The generator is already running."
			case digits(call.Args.String("access_code")) != want:
				return "ACCESS DENIED."
			}
			here.SetFlag(FlagGeneratorActivated, true)
			return "The generator roars to life. Main power is restored throughout the ship."
		},
	}
}

// digits keeps only the digits of s, so 1987-03-14 and 19870314 match.
func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
