// Package search provides web search tools backed by the Tavily and Brave
// Search HTTP APIs.
//
// Both tools check their API key before any request is made and report a
// missing key as a *core.ConfigurationError. Non-2xx responses surface as
// *core.ToolExecutionError carrying the status code and response body.
package search
