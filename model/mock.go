package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentnet/core"
)

// MockHandler computes a final response for a request.
type MockHandler func(ctx context.Context, req Request) (Response, error)

// MockModel is a lightweight in-memory Model useful for tests and examples.
//
// Responses are chosen in this order: the handler (if set), the next
// scripted response, a canned response keyed by the last user message, and
// finally "Mock response to: <input>". When the request streams, the final
// text is emitted rune by rune before the final response.
type MockModel struct {
	info Info

	mu        sync.Mutex
	handler   MockHandler
	script    []Response
	responses map[string]string
	requests  []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends scripted final responses consumed one per call.
func (m *MockModel) Enqueue(resps ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resps...)
}

// SetHandler installs a handler taking precedence over scripted responses.
func (m *MockModel) SetHandler(h MockHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	req.Messages = core.CloneMessages(req.Messages)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	handler := m.handler
	var scripted *Response
	if handler == nil && len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		scripted = &r
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		var final Response
		switch {
		case handler != nil:
			r, err := handler(ctx, req)
			if err != nil {
				errCh <- err
				return
			}
			final = r
		case scripted != nil:
			final = *scripted
		default:
			input := lastUserText(req.Messages)
			if input == "" {
				errCh <- fmt.Errorf("no user message provided")
				return
			}
			m.mu.Lock()
			text := m.responses[input]
			m.mu.Unlock()
			if text == "" {
				text = fmt.Sprintf("Mock response to: %s", input)
			}
			final = Response{Text: text}
		}

		final.Partial = false
		if final.FinishReason == "" {
			final.FinishReason = "stop"
			if len(final.ToolCalls) > 0 {
				final.FinishReason = "tool_calls"
			}
		}

		if req.Stream {
			for _, r := range final.Text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- final:
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

func lastUserText(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
