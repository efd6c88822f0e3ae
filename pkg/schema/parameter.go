package schema

import (
	"fmt"
	"sort"
)

// Parameter declares one pipeline parameter: its value type plus the
// metadata a host needs to render a form control for it.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // text, int, float, bool, select or button
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Options     []string `json:"options,omitempty"` // for select
	Category    string   `json:"category,omitempty"`
}

// Validator returns the Type checking values for this parameter. Button
// parameters return nil: they trigger maintenance actions and never carry a
// value.
func (p Parameter) Validator() Type {
	switch p.Type {
	case "text":
		return Text()
	case "int":
		return Int()
	case "float":
		return Float()
	case "bool":
		return Bool()
	case "select":
		return Select(p.Options...)
	default:
		return nil
	}
}

// ApplyDefaults returns a new map holding every declared default overlaid
// with the host-provided values. The input map is not modified.
func ApplyDefaults(defs []Parameter, data map[string]any) map[string]any {
	merged := make(map[string]any, len(defs)+len(data))
	for _, def := range defs {
		if def.Default != nil {
			merged[def.Name] = def.Default
		}
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged
}

// Validate checks every provided value against its declared parameter.
// Unknown keys and type mismatches are reported together in an
// AggregateError so hosts can render per-field messages. Presence is not
// enforced here: whether an input is required is pipeline policy, not a
// schema property.
func Validate(defs []Parameter, data map[string]any) error {
	byName := make(map[string]Parameter, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value := data[key]

		def, known := byName[key]
		if !known {
			errs = append(errs, &ValidationError{Key: key, Reason: "not a known parameter", Value: value})
			continue
		}
		if def.Type == "button" {
			continue
		}

		validator := def.Validator()
		if validator == nil {
			errs = append(errs, &ValidationError{Key: key, Reason: fmt.Sprintf("unknown parameter type %q", def.Type)})
			continue
		}
		if err := validator.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
