package game

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema renders the action's parameter list as a JSON Schema object.
// Properties keep declaration order so the model sees them as written.
func (a *Action) Schema() *jsonschema.Schema {
	required := []string{}
	for _, p := range a.Params {
		if !p.Optional {
			required = append(required, p.Name)
		}
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           properties(a.Params),
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func properties(params []Param) *orderedmap.OrderedMap[string, *jsonschema.Schema] {
	props := orderedmap.New[string, *jsonschema.Schema]()
	for _, p := range params {
		props.Set(p.Name, &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		})
	}
	return props
}

// SchemaMap is the schema as a plain map, the shape model SDKs accept for
// function parameters.
func (a *Action) SchemaMap() map[string]any {
	b, err := json.Marshal(a.Schema())
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
