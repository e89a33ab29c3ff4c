package game

// Actor is whoever acts in the world: the model-driven agent, or a bare
// Player when the world is driven from outside.
type Actor interface {
	Inventory() *Inventory
	Location() string
	SetLocation(name string)
}

// Context is the part of the world an action handler may touch.
type Context interface {
	Here() *Location
	Location(name string) (*Location, bool)
	MoveTo(name string) error
}

type Player struct {
	inventory *Inventory
	location  string
}

func NewPlayer() *Player {
	return &Player{inventory: NewInventory()}
}

func (p *Player) Inventory() *Inventory {
	return p.inventory
}

func (p *Player) Location() string {
	return p.location
}

func (p *Player) SetLocation(name string) {
	p.location = name
}
