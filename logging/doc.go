// Package logging provides a minimal logging interface and adapters for agentnet.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, tools, networks and workflows use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - New, building a JSON or text slog handler from a Config
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "text"})
//	a, err := agent.New(spec, func(o *agent.Options) { o.Logger = logger })
package logging
