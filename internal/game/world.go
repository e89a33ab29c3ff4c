package game

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownLocation   = errors.New("unknown location")
	ErrDuplicateLocation = errors.New("duplicate location")
	ErrDuplicateAction   = errors.New("duplicate action")
	ErrNoActor           = errors.New("no actor attached")
)

// World owns the locations of one run, the single attached actor and the
// count of nudges the control loop has spent.
type World struct {
	locations map[string]*Location
	order     []string
	actor     Actor
	nudges    int
}

func NewWorld() *World {
	return &World{locations: make(map[string]*Location)}
}

func (w *World) AddLocation(l *Location) error {
	if _, exists := w.locations[l.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLocation, l.Name)
	}
	w.locations[l.Name] = l
	w.order = append(w.order, l.Name)
	return nil
}

// Attach places actor at start. A world holds at most one actor; attaching
// again replaces it.
func (w *World) Attach(actor Actor, start string) error {
	if _, ok := w.locations[start]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, start)
	}
	actor.SetLocation(start)
	w.actor = actor
	return nil
}

func (w *World) Actor() Actor {
	return w.actor
}

func (w *World) Location(name string) (*Location, bool) {
	l, ok := w.locations[name]
	return l, ok
}

func (w *World) Locations() []*Location {
	out := make([]*Location, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.locations[name])
	}
	return out
}

// Here is the actor's current location, or nil before Attach.
func (w *World) Here() *Location {
	if w.actor == nil {
		return nil
	}
	return w.locations[w.actor.Location()]
}

// MoveTo relocates the actor. Adjacency is the caller's concern; MoveTo only
// refuses names that do not resolve.
func (w *World) MoveTo(name string) error {
	if w.actor == nil {
		return ErrNoActor
	}
	if _, ok := w.locations[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, name)
	}
	w.actor.SetLocation(name)
	return nil
}

// Validate reports adjacency entries that name no location.
func (w *World) Validate() error {
	var errs []error
	for _, l := range w.Locations() {
		for _, adj := range l.Adjacent {
			if _, ok := w.locations[adj]; !ok {
				errs = append(errs, fmt.Errorf("%s lists %w %q", l.Name, ErrUnknownLocation, adj))
			}
		}
	}
	return errors.Join(errs...)
}

func (w *World) Nudges() int {
	return w.nudges
}

// Nudge records one more stalled turn and returns the new count.
func (w *World) Nudge() int {
	w.nudges++
	return w.nudges
}

func (w *World) ResetNudges() {
	w.nudges = 0
}
