package research

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/schema"
	"github.com/hupe1980/agentnet/tool"
	"github.com/hupe1980/agentnet/tool/analysis"
)

func searchTool(calls *atomic.Int32, err error) tool.Tool {
	return tool.New(tool.Spec{
		ID:    "tavily-search",
		Input: schema.Object(schema.Prop("query", schema.String())),
		Execute: func(context.Context, map[string]any) (any, error) {
			calls.Add(1)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"answer":  "Notable people include Andrew Ng and Harrison Chase.",
				"results": []any{map[string]any{"title": "AI agents", "url": "https://example.com/agents", "content": "..."}},
			}, nil
		},
	})
}

// scripted plays coordinator and members, dispatching on the system prompt.
func scripted() *model.MockModel {
	m := model.NewMockModel("scripted", "mock")
	m.SetHandler(func(_ context.Context, req model.Request) (model.Response, error) {
		last := req.Messages[len(req.Messages)-1]

		switch {
		case strings.Contains(req.System, "Respond with JSON only"):
			return model.Response{Text: `{"subtasks":[
				{"id":"search","description":"Find well-known people in AI agents","agent":"Web Search Agent"},
				{"id":"write","description":"Write a profile article","agent":"Content Creation Agent","dependsOn":["search"]}]}`}, nil
		case strings.Contains(req.System, "Combine the contributions"):
			return model.Response{Text: "Final report: " + req.Messages[0].Content[strings.Index(req.Messages[0].Content, "Contributions:"):]}, nil
		case strings.HasPrefix(req.System, "You are a web search expert."):
			if last.Role == core.RoleTool {
				if last.IsError {
					return model.Response{}, errors.New("search unavailable")
				}
				return model.Response{Text: "Andrew Ng and Harrison Chase (https://example.com/agents)"}, nil
			}
			return model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "tavily-search", Arguments: `{"query":"famous AI agent researchers"}`}}}, nil
		case strings.HasPrefix(req.System, "You are a content creation expert."):
			return model.Response{Text: "Article drafted from: " + last.Content}, nil
		default:
			return model.Response{Text: "unexpected"}, nil
		}
	})
	return m
}

func TestNew_Roster(t *testing.T) {
	var calls atomic.Int32
	n, err := New(Deps{Model: scripted(), Search: searchTool(&calls, nil), Analysis: analysis.New()})
	require.NoError(t, err)

	assert.Equal(t, NetworkName, n.Name())

	roster := n.Roster()
	require.Len(t, roster, 3)
	assert.Equal(t, WebSearchAgentName, roster[0].Name)
	assert.Equal(t, []string{"tavily-search"}, roster[0].Tools)
	assert.Equal(t, DataAnalysisAgentName, roster[1].Name)
	assert.Equal(t, []string{analysis.ID}, roster[1].Tools)
	assert.Equal(t, ContentCreationAgentName, roster[2].Name)
	assert.Empty(t, roster[2].Tools)
	assert.Equal(t, "You are a web search expert.", roster[0].Description)

	_, err = New(Deps{Model: scripted()})
	assert.Error(t, err)
}

func TestGenerate_Research(t *testing.T) {
	var calls atomic.Int32
	n, err := New(Deps{Model: scripted(), Search: searchTool(&calls, nil), Analysis: analysis.New()})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "AI Agentで著名な方を調査してください")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, res.SubTasks, 2)
	assert.Equal(t, WebSearchAgentName, res.SubTasks[0].SubTask.Agent)
	assert.Equal(t, ContentCreationAgentName, res.SubTasks[1].SubTask.Agent)
	assert.Contains(t, res.SubTasks[1].Text, "Andrew Ng", "writer builds on the search result")

	assert.True(t, strings.HasPrefix(res.Text, "Final report: "))
	assert.NotContains(t, res.Text, "Unavailable contributions")
}

func TestGenerate_SearchFailureDegrades(t *testing.T) {
	var calls atomic.Int32
	backend := &core.ToolExecutionError{Tool: "tavily-search", StatusCode: 500, Body: "boom"}

	n, err := New(Deps{Model: scripted(), Search: searchTool(&calls, backend), Analysis: analysis.New()})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "AI Agentで著名な方を調査してください")
	require.NoError(t, err)

	assert.False(t, res.SubTasks[0].Available)
	assert.True(t, res.SubTasks[1].Available)
	assert.Contains(t, res.Text, "Unavailable contributions")
	assert.Contains(t, res.Text, "status 500")
}
