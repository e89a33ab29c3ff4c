package game

import (
	"context"
	"fmt"
	"regexp"
)

// ParamType is the primitive JSON type an action parameter accepts.
type ParamType string

const (
	String  ParamType = "string"
	Number  ParamType = "number"
	Integer ParamType = "integer"
	Boolean ParamType = "boolean"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Optional    bool
}

// Call is what a handler receives once its arguments have been bound.
// Agent is only set for actions registered with NeedsAgent.
type Call struct {
	World Context
	Agent Actor
	Args  Args
}

type Handler func(ctx context.Context, call Call) string

type Action struct {
	Name        string
	Description string
	Params      []Param
	NeedsAgent  bool
	Handler     Handler
}

var actionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func (a Action) validate() error {
	if !actionNamePattern.MatchString(a.Name) {
		return fmt.Errorf("invalid action name %q", a.Name)
	}
	if a.Handler == nil {
		return fmt.Errorf("action %s has no handler", a.Name)
	}
	seen := make(map[string]bool, len(a.Params))
	for _, p := range a.Params {
		switch p.Type {
		case String, Number, Integer, Boolean:
		default:
			return fmt.Errorf("action %s: parameter %q has unsupported type %q", a.Name, p.Name, p.Type)
		}
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("action %s: parameter name %q is empty or repeated", a.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// ActionSet is the ordered registry of actions a location exposes.
type ActionSet struct {
	order  []string
	byName map[string]*Action
}

func NewActionSet() *ActionSet {
	return &ActionSet{byName: make(map[string]*Action)}
}

func (s *ActionSet) Register(a Action) error {
	if err := a.validate(); err != nil {
		return err
	}
	if _, exists := s.byName[a.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, a.Name)
	}
	s.byName[a.Name] = &a
	s.order = append(s.order, a.Name)
	return nil
}

// MustRegister registers actions at construction time and panics on a
// programming error such as a duplicate name.
func (s *ActionSet) MustRegister(actions ...Action) {
	for _, a := range actions {
		if err := s.Register(a); err != nil {
			panic(err)
		}
	}
}

func (s *ActionSet) Lookup(name string) (*Action, bool) {
	a, ok := s.byName[name]
	return a, ok
}

func (s *ActionSet) All() []*Action {
	out := make([]*Action, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

func (s *ActionSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *ActionSet) Len() int {
	return len(s.order)
}
