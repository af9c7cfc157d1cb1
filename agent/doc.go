// Package agent implements the model-backed persona used by networks and
// workflow steps.
//
// An Agent binds a name, a static behavioral directive (instructions), a
// model capability and a fixed set of tools. It is stateless between calls:
// every Generate or Stream receives the full message list and owns a private
// copy of it for the duration of the call.
//
// Execution Model:
//   - The model is called with the persona, the conversation and the tool
//     definitions derived from each tool's input schema
//   - Tool calls are resolved by exact name; an unknown name is a fatal
//     *core.ConfigurationError
//   - Tool results are appended as tool messages and the model is called
//     again until it answers without tool calls, bounded by MaxTurns
//   - A failing tool aborts the invocation with the tool's typed error
package agent
