package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentnet/core"
)

// ErrStreamStopped is returned by Drain when the partial callback asks to stop.
var ErrStreamStopped = errors.New("model: stream stopped by consumer")

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON-schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	System   string           `json:"system,omitempty"` // Persona instructions
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a partial or final chunk emitted by a model.
// Partial responses carry text deltas; the final response carries the full
// text and any requested tool calls.
type Response struct {
	ID           string          `json:"id,omitempty"`
	Partial      bool            `json:"partial"`
	Text         string          `json:"text"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Implementations close both channels when done and send at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Drain consumes a Generate result and returns the final response. Every
// partial response is handed to onPartial (may be nil); returning false
// stops consumption with ErrStreamStopped.
func Drain(ctx context.Context, resps <-chan Response, errs <-chan error, onPartial func(Response) bool) (*Response, error) {
	var final *Response

	for resps != nil || errs != nil {
		select {
		case <-ctx.Done():
			go discard(resps, errs)
			return nil, ctx.Err()
		case r, ok := <-resps:
			if !ok {
				resps = nil
				continue
			}
			if r.Partial {
				if onPartial != nil && !onPartial(r) {
					go discard(resps, errs)
					return nil, ErrStreamStopped
				}
				continue
			}
			final = &r
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				go discard(resps, errs)
				return nil, err
			}
		}
	}

	if final == nil {
		return nil, fmt.Errorf("model returned no final response")
	}

	return final, nil
}

// discard unblocks a producer whose consumer went away.
func discard(resps <-chan Response, errs <-chan error) {
	if resps != nil {
		for range resps {
		}
	}
	if errs != nil {
		for range errs {
		}
	}
}
