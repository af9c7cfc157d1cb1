package anthropic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
)

func TestBuildMessages_ToolRoundTrip(t *testing.T) {
	msgs := []core.Message{
		core.SystemMessage("ignored here"),
		core.UserMessage("weather in Tokyo?"),
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{
			{ID: "c1", Name: "get-weather", Arguments: `{"city":"Tokyo"}`},
			{ID: "c2", Name: "get-weather", Arguments: `{"city":"Osaka"}`},
		}},
		core.ToolResultMessage("c1", `{"temp":20}`, false),
		core.ToolResultMessage("c2", "backend down", true),
	}

	out := buildMessages(msgs)
	require.Len(t, out, 3)

	assert.Equal(t, "user", string(out[0].Role))
	require.NotNil(t, out[0].Content[0].OfText)
	assert.Equal(t, "weather in Tokyo?", out[0].Content[0].OfText.Text)

	assert.Equal(t, "assistant", string(out[1].Role))
	require.Len(t, out[1].Content, 2)
	require.NotNil(t, out[1].Content[0].OfToolUse)
	assert.Equal(t, "c1", out[1].Content[0].OfToolUse.ID)
	assert.Equal(t, "get-weather", out[1].Content[0].OfToolUse.Name)

	assert.Equal(t, "user", string(out[2].Role))
	require.Len(t, out[2].Content, 2)
	require.NotNil(t, out[2].Content[1].OfToolResult)
	assert.Equal(t, "c2", out[2].Content[1].OfToolResult.ToolUseID)
	assert.True(t, out[2].Content[1].OfToolResult.IsError.Value)
}

func TestBuildSystem(t *testing.T) {
	blocks := buildSystem(model.Request{
		System:   "You are a weather assistant.",
		Messages: []core.Message{core.SystemMessage("Be brief."), core.UserMessage("hi")},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "You are a weather assistant.", blocks[0].Text)
	assert.Equal(t, "Be brief.", blocks[1].Text)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Name:        "tavily-search",
		Description: "Search the web",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []any{"query"},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "tavily-search", tools[0].OfTool.Name)
	assert.Equal(t, "Search the web", tools[0].OfTool.Description.Value)
	assert.Equal(t, []string{"query"}, tools[0].OfTool.InputSchema.Required)
}

func TestGenerate_Buffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "weather in Tokyo?")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-sonnet-20241022",
			"content": [
				{"type": "text", "text": "Let me check."},
				{"type": "tool_use", "id": "tu_1", "name": "get-weather", "input": {"city": "Tokyo"}}
			],
			"stop_reason": "tool_use", "stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})

	resps, errs := m.Generate(context.Background(), model.Request{Messages: []core.Message{core.UserMessage("weather in Tokyo?")}})
	final, err := model.Drain(context.Background(), resps, errs, nil)

	require.NoError(t, err)
	assert.Equal(t, "Let me check.", final.Text)
	assert.Equal(t, "tool_use", final.FinishReason)
	require.Len(t, final.ToolCalls, 1)
	assert.Equal(t, "get-weather", final.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Tokyo"}`, final.ToolCalls[0].Arguments)
	assert.Equal(t, 15, final.Usage.TotalTokens)
}

func TestGenerate_Streaming(t *testing.T) {
	events := []string{
		`event: message_start
data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-3-5-sonnet-20241022","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":1}}}`,
		`event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Sunny "}}`,
		`event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"skies"}}`,
		`event: content_block_stop
data: {"type":"content_block_stop","index":0}`,
		`event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":3}}`,
		`event: message_stop
data: {"type":"message_stop"}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "%s\n\n", e)
		}
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})

	var partials []string
	resps, errs := m.Generate(context.Background(), model.Request{Stream: true, Messages: []core.Message{core.UserMessage("weather?")}})
	final, err := model.Drain(context.Background(), resps, errs, func(r model.Response) bool {
		partials = append(partials, r.Text)
		return true
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Sunny ", "skies"}, partials)
	assert.Equal(t, "Sunny skies", final.Text)
	assert.Equal(t, "end_turn", final.FinishReason)
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })
	assert.Equal(t, "anthropic", m.Info().Provider)
}
