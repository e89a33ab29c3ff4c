package game

// Goal reports whether the run has been won.
type Goal func(w *World) bool

// FlagSet is met once the named location has flag set.
func FlagSet(location, flag string) Goal {
	return func(w *World) bool {
		l, ok := w.Location(location)
		return ok && l.Flag(flag)
	}
}

// Briefing is the fixed text an agent is given: the system prompt, the
// goal statement and the nudge sent after a stalled turn.
type Briefing struct {
	System string `yaml:"system"`
	Goal   string `yaml:"goal"`
	Nudge  string `yaml:"nudge"`
}
