package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/hupe1980/agentnet/core"
)

// Validate checks v against s. Go values (structs, typed slices) are
// compared through their JSON encoding. On failure it returns a
// *core.SchemaValidationError listing every offending path.
func (s Schema) Validate(v any) error {
	return s.ValidateNamed("", v)
}

// ValidateNamed is Validate with a subject recorded on the error, e.g.
// "tool tavily-search input".
func (s Schema) ValidateNamed(subject string, v any) error {
	if s.IsZero() || s.Kind == KindAny {
		return nil
	}

	value, err := Normalize(v)
	if err != nil {
		return &core.SchemaValidationError{
			Subject: subject,
			Fields:  []core.FieldError{{Message: fmt.Sprintf("value is not serializable: %v", err)}},
		}
	}

	var fields []core.FieldError
	s.check("", value, &fields)
	if len(fields) == 0 {
		return nil
	}

	return &core.SchemaValidationError{Subject: subject, Fields: fields}
}

// Normalize converts v into the generic shape produced by encoding/json
// (map[string]any, []any, float64, string, bool, nil).
func Normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (s Schema) check(path string, v any, fields *[]core.FieldError) {
	if s.IsZero() || s.Kind == KindAny {
		return
	}

	fail := func(format string, args ...any) {
		*fields = append(*fields, core.FieldError{Path: path, Message: fmt.Sprintf(format, args...), Value: v})
	}

	if v == nil {
		fail("is required")
		return
	}

	switch s.Kind {
	case KindString:
		str, ok := v.(string)
		if !ok {
			fail("expected string, got %s", typeName(v))
			return
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			fail("must be one of %v", s.Enum)
		}
	case KindNumber:
		if _, ok := v.(float64); !ok {
			fail("expected number, got %s", typeName(v))
		}
	case KindInteger:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			fail("expected integer, got %s", typeName(v))
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			fail("expected boolean, got %s", typeName(v))
		}
	case KindArray:
		items, ok := v.([]any)
		if !ok {
			fail("expected array, got %s", typeName(v))
			return
		}
		if s.Items == nil {
			return
		}
		for i, item := range items {
			s.Items.check(path+"["+strconv.Itoa(i)+"]", item, fields)
		}
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			fail("expected object, got %s", typeName(v))
			return
		}
		for _, p := range s.Properties {
			child, present := obj[p.Name]
			if !present || child == nil {
				if !p.Optional {
					*fields = append(*fields, core.FieldError{Path: join(path, p.Name), Message: "is required"})
				}
				continue
			}
			p.Schema.check(join(path, p.Name), child, fields)
		}
	case KindRecord:
		obj, ok := v.(map[string]any)
		if !ok {
			fail("expected object, got %s", typeName(v))
			return
		}
		if s.Values == nil {
			return
		}
		for _, key := range sortedKeys(obj) {
			s.Values.check(join(path, key), obj[key], fields)
		}
	default:
		fail("unknown schema kind %q", s.Kind)
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
