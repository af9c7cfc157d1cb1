package schema

import (
	"fmt"
	"slices"

	"github.com/hupe1980/agentnet/core"
)

// Compatible reports whether every value satisfying provider also satisfies
// required. It is a definition-time check: a workflow uses it at commit to
// reject a step whose input cannot be produced by its source.
//
// The check is structural. A missing or Any schema on either side is
// accepted, integers satisfy numbers, an enum provider must be a subset of
// an enum requirement, and a required object property must be present and
// non-optional on the provider.
func Compatible(provider, required Schema) error {
	var fields []core.FieldError
	compatible("", provider, required, &fields)
	if len(fields) == 0 {
		return nil
	}
	return &core.SchemaValidationError{Subject: "schema compatibility", Fields: fields}
}

func compatible(path string, provider, required Schema, fields *[]core.FieldError) {
	if provider.IsZero() || required.IsZero() || provider.Kind == KindAny || required.Kind == KindAny {
		return
	}

	fail := func(format string, args ...any) {
		*fields = append(*fields, core.FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch required.Kind {
	case KindNumber:
		if provider.Kind != KindNumber && provider.Kind != KindInteger {
			fail("provides %s, requires number", provider.Kind)
		}
		return
	case KindRecord:
		switch provider.Kind {
		case KindRecord:
			if provider.Values != nil && required.Values != nil {
				compatible(path, *provider.Values, *required.Values, fields)
			}
		case KindObject:
			if required.Values != nil {
				for _, p := range provider.Properties {
					compatible(join(path, p.Name), p.Schema, *required.Values, fields)
				}
			}
		default:
			fail("provides %s, requires record", provider.Kind)
		}
		return
	}

	if provider.Kind != required.Kind {
		fail("provides %s, requires %s", provider.Kind, required.Kind)
		return
	}

	switch required.Kind {
	case KindString:
		if len(required.Enum) == 0 {
			return
		}
		if len(provider.Enum) == 0 {
			fail("provides any string, requires one of %v", required.Enum)
			return
		}
		for _, v := range provider.Enum {
			if !slices.Contains(required.Enum, v) {
				fail("may provide %q, requires one of %v", v, required.Enum)
			}
		}
	case KindArray:
		if provider.Items != nil && required.Items != nil {
			compatible(path+"[]", *provider.Items, *required.Items, fields)
		}
	case KindObject:
		for _, rp := range required.Properties {
			pp, ok := provider.Property(rp.Name)
			if !ok {
				if !rp.Optional {
					*fields = append(*fields, core.FieldError{Path: join(path, rp.Name), Message: "required but not provided"})
				}
				continue
			}
			if pp.Optional && !rp.Optional {
				*fields = append(*fields, core.FieldError{Path: join(path, rp.Name), Message: "required but only optionally provided"})
				continue
			}
			compatible(join(path, rp.Name), pp.Schema, rp.Schema, fields)
		}
	}
}
