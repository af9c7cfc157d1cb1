package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/core"
)

func TestCompatible(t *testing.T) {
	forecast := Array(Object(
		Prop("date", String()),
		Prop("maxTemp", Number()),
		Opt("location", String()),
	))

	tests := []struct {
		name     string
		provider Schema
		required Schema
		paths    []string
	}{
		{name: "identical", provider: forecast, required: forecast},
		{name: "zero required", provider: forecast, required: Schema{}},
		{name: "any provider", provider: Any(), required: forecast},
		{name: "integer satisfies number", provider: Integer(), required: Number()},
		{name: "kind mismatch", provider: String(), required: Array(String()), paths: []string{""}},
		{name: "enum subset", provider: Enum("a"), required: Enum("a", "b")},
		{name: "enum superset", provider: Enum("a", "c"), required: Enum("a", "b"), paths: []string{""}},
		{
			name:     "missing property",
			provider: Array(Object(Prop("date", String()))),
			required: forecast,
			paths:    []string{"[].maxTemp"},
		},
		{
			name:     "optional cannot satisfy required",
			provider: Object(Opt("city", String())),
			required: Object(Prop("city", String())),
			paths:    []string{"city"},
		},
		{
			name:     "object satisfies record",
			provider: Object(Prop("mean", Number()), Prop("max", Integer())),
			required: Record(Number()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compatible(tt.provider, tt.required)
			if len(tt.paths) == 0 {
				assert.NoError(t, err)
				return
			}

			var sve *core.SchemaValidationError
			require.ErrorAs(t, err, &sve)
			assert.Equal(t, tt.paths, sve.FieldPaths())
		})
	}
}
