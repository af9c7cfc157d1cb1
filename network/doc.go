// Package network implements the agent-network coordinator: a named group of
// member agents that answers a goal by decomposing it into sub-tasks,
// dispatching them to the best matching member, collecting their answers and
// synthesizing one response.
//
// Each Generate call walks the same state machine:
//
//	Decompose -> Dispatch -> Collect -> Synthesize
//
// Decomposition is delegated to a pluggable RoutingStrategy (KeywordRouter,
// ModelRouter or any RouterFunc). Sub-tasks whose dependencies are complete
// run concurrently, bounded by MaxConcurrency; each branch owns its own
// message list. A failing member degrades its sub-task to an
// "[unavailable: ...]" marker; only when every sub-task fails does Generate
// return *core.NetworkExhaustedError. No state survives a call.
package network
