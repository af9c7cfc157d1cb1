package schema

import "slices"

// Kind is the base type of a Schema node.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindRecord  Kind = "record" // object with arbitrary keys and uniform values
)

// Schema is a data-level description of a value. The zero Schema accepts
// anything.
type Schema struct {
	Kind        Kind       `json:"kind"`
	Description string     `json:"description,omitempty"`
	Enum        []string   `json:"enum,omitempty"`       // KindString only
	Items       *Schema    `json:"items,omitempty"`      // KindArray only
	Properties  []Property `json:"properties,omitempty"` // KindObject only, ordered
	Values      *Schema    `json:"values,omitempty"`     // KindRecord only
}

// Property is a named field of an object schema.
type Property struct {
	Name     string `json:"name"`
	Schema   Schema `json:"schema"`
	Optional bool   `json:"optional,omitempty"`
}

// Any accepts every value.
func Any() Schema { return Schema{Kind: KindAny} }

// String accepts strings.
func String() Schema { return Schema{Kind: KindString} }

// Number accepts any numeric value.
func Number() Schema { return Schema{Kind: KindNumber} }

// Integer accepts integral numeric values.
func Integer() Schema { return Schema{Kind: KindInteger} }

// Boolean accepts booleans.
func Boolean() Schema { return Schema{Kind: KindBoolean} }

// Enum accepts one of the given strings.
func Enum(values ...string) Schema {
	return Schema{Kind: KindString, Enum: slices.Clone(values)}
}

// Array accepts lists whose elements all satisfy items.
func Array(items Schema) Schema {
	return Schema{Kind: KindArray, Items: &items}
}

// Object accepts maps carrying the given properties. Unknown keys are
// tolerated.
func Object(props ...Property) Schema {
	return Schema{Kind: KindObject, Properties: slices.Clone(props)}
}

// Record accepts maps with arbitrary keys whose values satisfy values.
func Record(values Schema) Schema {
	return Schema{Kind: KindRecord, Values: &values}
}

// Prop declares a required property.
func Prop(name string, s Schema) Property { return Property{Name: name, Schema: s} }

// Opt declares an optional property.
func Opt(name string, s Schema) Property { return Property{Name: name, Schema: s, Optional: true} }

// Describe returns a copy of s carrying the description.
func (s Schema) Describe(desc string) Schema {
	s.Description = desc
	return s
}

// IsZero reports whether s declares nothing.
func (s Schema) IsZero() bool { return s.Kind == "" }

// Property returns the named property of an object schema.
func (s Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// JSONSchema renders s as a JSON-schema object suitable for tool
// definitions sent to model providers.
func (s Schema) JSONSchema() map[string]any {
	out := map[string]any{}

	switch s.Kind {
	case KindString:
		out["type"] = "string"
		if len(s.Enum) > 0 {
			out["enum"] = slices.Clone(s.Enum)
		}
	case KindNumber:
		out["type"] = "number"
	case KindInteger:
		out["type"] = "integer"
	case KindBoolean:
		out["type"] = "boolean"
	case KindArray:
		out["type"] = "array"
		if s.Items != nil {
			out["items"] = s.Items.JSONSchema()
		}
	case KindObject:
		props := make(map[string]any, len(s.Properties))
		required := make([]string, 0, len(s.Properties))
		for _, p := range s.Properties {
			props[p.Name] = p.Schema.JSONSchema()
			if !p.Optional {
				required = append(required, p.Name)
			}
		}
		out["type"] = "object"
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
	case KindRecord:
		out["type"] = "object"
		if s.Values != nil {
			out["additionalProperties"] = s.Values.JSONSchema()
		}
	}

	if s.Description != "" {
		out["description"] = s.Description
	}

	return out
}
