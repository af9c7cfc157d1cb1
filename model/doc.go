// Package model defines the provider-agnostic abstractions for interacting
// with language models inside agentnet.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool call representation (ToolDefinition, core.ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Expose incremental output as a lazy, single-use TextStream
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (model/anthropic, model/openai) implement the Model interface so
// agents, networks and workflows remain decoupled from vendor SDKs.
package model
