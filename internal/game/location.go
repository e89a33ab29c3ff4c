package game

import (
	"fmt"
	"slices"
	"strings"
)

type Location struct {
	Name        string
	Description string
	// Adjacent holds location names; they are resolved against the world on
	// lookup, so a name with no matching location is only caught when used.
	Adjacent []string
	Actions  *ActionSet

	items []string
	flags map[string]bool
}

// NewLocation returns a location with an empty action set. A zero Location
// holds items and flags but has no Actions to register into.
func NewLocation(name, description string, adjacent ...string) *Location {
	return &Location{
		Name:        name,
		Description: description,
		Adjacent:    adjacent,
		Actions:     NewActionSet(),
		flags:       make(map[string]bool),
	}
}

func (l *Location) AddItems(items ...string) {
	l.items = append(l.items, items...)
}

func (l *Location) Items() []string {
	return slices.Clone(l.items)
}

// TakeItems empties the location and returns what was there.
func (l *Location) TakeItems() []string {
	taken := l.items
	l.items = nil
	return taken
}

func (l *Location) Flag(name string) bool {
	return l.flags[name]
}

func (l *Location) SetFlag(name string, value bool) {
	if l.flags == nil {
		l.flags = make(map[string]bool)
	}
	l.flags[name] = value
}

func (l *Location) IsAdjacent(name string) bool {
	return slices.Contains(l.Adjacent, name)
}

// Describe is the text an agent receives when it arrives or looks around.
func (l *Location) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are in the %s. %s", l.Name, l.Description)
	if len(l.Adjacent) > 0 {
		fmt.Fprintf(&b, "\nFrom here you can reach: %s.", strings.Join(l.Adjacent, ", "))
	}
	return b.String()
}
