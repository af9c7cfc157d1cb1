// Package tool implements the tool contract that lets agents invoke structured
// capabilities (search backends, computations) with schema validated input,
// consistent typed errors and metadata for model guidance.
package tool

import (
	"context"

	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/schema"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are bound to agents by name. When a model requests a call, the agent
// decodes the JSON arguments and hands them to Call.
//
// Tool implementations should:
//   - Provide a unique, descriptive name (kebab-case, e.g. "tavily-search")
//   - Declare input and output schemas
//   - Return errors from the core taxonomy
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the model
	// to help it decide when and how to use the tool.
	Description() string

	// InputSchema describes the accepted arguments.
	InputSchema() schema.Schema

	// OutputSchema describes the value returned on success.
	OutputSchema() schema.Schema

	// Call validates args and executes the tool.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Definition renders t as a model tool definition.
func Definition(t Tool) model.ToolDefinition {
	params := t.InputSchema().JSONSchema()
	if params["type"] != "object" {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return model.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  params,
	}
}

// Set builds a name keyed tool map.
func Set(tools ...Tool) map[string]Tool {
	out := make(map[string]Tool, len(tools))
	for _, t := range tools {
		out[t.Name()] = t
	}
	return out
}
