// Package schema describes the shape of tool inputs, tool outputs, workflow
// triggers and step results as plain data.
//
// A Schema is a small tree of kinds (string, number, integer, boolean, array,
// object, record, any). The same value drives three things:
//
//   - Validate checks a decoded value and reports every offending field path
//     ("results[2].url") in a single *core.SchemaValidationError.
//   - JSONSchema renders the JSON-schema object handed to model providers as a
//     tool parameter definition.
//   - Compatible checks at definition time that the values one component
//     produces satisfy the schema another component requires.
//
// Basic usage:
//
//	input := schema.Object(
//	    schema.Prop("query", schema.String().Describe("The search query")),
//	    schema.Opt("searchDepth", schema.Enum("basic", "advanced")),
//	)
//
//	if err := input.Validate(map[string]any{"query": 42}); err != nil {
//	    // err is *core.SchemaValidationError listing "query"
//	}
package schema
