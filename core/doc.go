// Package core provides the foundational types shared by every layer of
// agentnet:
//
//   - Messages (role-based conversation entries and tool call records)
//   - The typed error taxonomy (schema, tool, step, network, configuration,
//     timeout) that callers match with errors.As
//   - ModelLimiter, the per-invocation cap on model turns
//   - NewID for run and sub-task correlation identifiers
//
// The package has no knowledge of concrete models, tools or orchestration
// strategies; it only defines the vocabulary the other packages speak.
package core
