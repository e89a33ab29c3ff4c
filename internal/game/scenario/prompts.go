package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"agentescape/internal/game"
)

//go:embed prompts.yaml
var promptsYAML []byte

func loadBriefing() (game.Briefing, error) {
	var b game.Briefing
	if err := yaml.Unmarshal(promptsYAML, &b); err != nil {
		return game.Briefing{}, fmt.Errorf("failed to parse prompts: %w", err)
	}

	tmpl, err := template.New("goal").Parse(b.Goal)
	if err != nil {
		return game.Briefing{}, fmt.Errorf("failed to parse goal prompt: %w", err)
	}
	var goal bytes.Buffer
	if err := tmpl.Execute(&goal, struct{ EngineRoom string }{EngineRoom}); err != nil {
		return game.Briefing{}, fmt.Errorf("failed to render goal prompt: %w", err)
	}

	b.System = strings.TrimSpace(b.System)
	b.Goal = strings.TrimSpace(goal.String())
	b.Nudge = strings.TrimSpace(b.Nudge)
	if b.System == "" || b.Goal == "" || b.Nudge == "" {
		return game.Briefing{}, fmt.Errorf("prompts must define system, goal and nudge")
	}
	return b, nil
}
