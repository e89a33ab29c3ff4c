package game

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Args holds the arguments of a call after they were checked against the
// action's parameter list.
type Args struct {
	values map[string]gjson.Result
}

func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

func (a Args) String(name string) string {
	return a.values[name].String()
}

func (a Args) Int(name string) int64 {
	return a.values[name].Int()
}

func (a Args) Float(name string) float64 {
	return a.values[name].Float()
}

func (a Args) Bool(name string) bool {
	return a.values[name].Bool()
}

// bindArgs checks a raw JSON argument object against params. Every problem
// found is reported, not only the first.
func bindArgs(params []Param, raw string) (Args, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	if !gjson.Valid(raw) {
		return Args{}, errors.New("arguments are not valid JSON")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return Args{}, errors.New("arguments must be a JSON object")
	}

	declared := make(map[string]Param, len(params))
	for _, p := range params {
		declared[p.Name] = p
	}

	var problems []string
	values := make(map[string]gjson.Result)
	parsed.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, ok := declared[name]; !ok {
			problems = append(problems, fmt.Sprintf("unexpected argument %q", name))
			return true
		}
		if value.Type != gjson.Null {
			values[name] = value
		}
		return true
	})

	for _, p := range params {
		value, ok := values[p.Name]
		if !ok {
			if !p.Optional {
				problems = append(problems, fmt.Sprintf("missing required argument %q (%s)", p.Name, p.Type))
			}
			continue
		}
		if !matchesType(value, p.Type) {
			problems = append(problems, fmt.Sprintf("argument %q must be %s, got %s", p.Name, article(p.Type), value.Raw))
		}
	}

	if len(problems) > 0 {
		return Args{}, errors.New(strings.Join(problems, "; "))
	}
	return Args{values: values}, nil
}

func matchesType(v gjson.Result, t ParamType) bool {
	switch t {
	case String:
		return v.Type == gjson.String
	case Number:
		return v.Type == gjson.Number
	case Integer:
		return v.Type == gjson.Number && v.Num == math.Trunc(v.Num)
	case Boolean:
		return v.Type == gjson.True || v.Type == gjson.False
	}
	return false
}

func article(t ParamType) string {
	if t == Integer {
		return "an integer"
	}
	return "a " + string(t)
}
