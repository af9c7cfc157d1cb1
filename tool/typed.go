package tool

import (
	"context"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/schema"
)

// TypedSpec declares a tool whose validated input is decoded into In.
type TypedSpec[In, Out any] struct {
	ID          string
	Description string
	Input       schema.Schema
	Output      schema.Schema
	Execute     func(ctx context.Context, in In) (Out, error)
}

// NewTyped builds a FunctionTool that decodes its validated input map into
// In (json tags) before calling Execute.
func NewTyped[In, Out any](spec TypedSpec[In, Out], optFns ...func(o *Options)) *FunctionTool {
	return New(Spec{
		ID:          spec.ID,
		Description: spec.Description,
		Input:       spec.Input,
		Output:      spec.Output,
		Execute: func(ctx context.Context, input map[string]any) (any, error) {
			var in In
			if err := schema.Decode(input, &in); err != nil {
				return nil, &core.SchemaValidationError{
					Subject: "tool " + spec.ID + " input",
					Fields:  []core.FieldError{{Message: err.Error()}},
				}
			}
			return spec.Execute(ctx, in)
		},
	}, optFns...)
}
