package network

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/agent"
	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/schema"
	"github.com/hupe1980/agentnet/tool"
)

func member(t *testing.T, name, instructions string, llm model.Model, tools ...tool.Tool) *agent.Agent {
	t.Helper()
	a, err := agent.New(agent.Spec{Name: name, Instructions: instructions, Model: llm, Tools: tool.Set(tools...)})
	require.NoError(t, err)
	return a
}

func echoModel(prefix string) *model.MockModel {
	m := model.NewMockModel(prefix, "mock")
	m.SetHandler(func(_ context.Context, req model.Request) (model.Response, error) {
		return model.Response{Text: prefix + " answered"}, nil
	})
	return m
}

func failingModel(err error) *model.MockModel {
	m := model.NewMockModel("failing", "mock")
	m.SetHandler(func(context.Context, model.Request) (model.Response, error) { return model.Response{}, err })
	return m
}

func TestNew_Validation(t *testing.T) {
	a := member(t, "A", "Search the web.", echoModel("A"))

	_, err := New(Spec{Name: "n"})
	var cfg *core.ConfigurationError
	assert.ErrorAs(t, err, &cfg)

	_, err = New(Spec{Name: "n", Members: []*agent.Agent{a, a}})
	assert.ErrorAs(t, err, &cfg)

	_, err = New(Spec{Members: []*agent.Agent{a}})
	assert.ErrorAs(t, err, &cfg)
}

func TestGenerate_SingleMemberReceivesEverything(t *testing.T) {
	llm := echoModel("solo")
	n, err := New(Spec{Name: "Solo", Members: []*agent.Agent{member(t, "Only Agent", "Handles content.", llm)}})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "Find data on rainfall. Analyze the trend. Write a summary!")
	require.NoError(t, err)

	require.Len(t, res.SubTasks, 3)
	for _, st := range res.SubTasks {
		assert.Equal(t, "Only Agent", st.SubTask.Agent)
		assert.True(t, st.Available)
	}
	assert.Len(t, llm.Requests(), 3)
	assert.NotEmpty(t, res.RunID)
}

func TestGenerate_RoutesUnambiguousGoal(t *testing.T) {
	search := echoModel("search")
	analysis := echoModel("analysis")
	content := echoModel("content")

	n, err := New(Spec{Name: "Research Network", Members: []*agent.Agent{
		member(t, "Web Search Agent", "You search the web for current information.", search),
		member(t, "Data Analysis Agent", "You analyze datasets and extract statistical trends.", analysis),
		member(t, "Content Creation Agent", "You write engaging articles.", content),
	}})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "Analyze these statistical datasets")
	require.NoError(t, err)

	require.Len(t, res.SubTasks, 1)
	assert.Equal(t, "Data Analysis Agent", res.SubTasks[0].SubTask.Agent)
	assert.Len(t, analysis.Requests(), 1)
	assert.Empty(t, search.Requests())
	assert.Empty(t, content.Requests())
	assert.Contains(t, res.Text, "analysis answered")
}

func TestGenerate_PartialFailureIsMarkedUnavailable(t *testing.T) {
	n, err := New(Spec{Name: "Research Network", Members: []*agent.Agent{
		member(t, "Web Search Agent", "You search the web.", failingModel(errors.New("quota exceeded"))),
		member(t, "Content Creation Agent", "You write articles.", echoModel("writer")),
	}}, func(o *Options) {
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) {
			return []SubTask{
				{ID: "search", Description: "search", Agent: "Web Search Agent"},
				{ID: "write", Description: "write", Agent: "Content Creation Agent", DependsOn: []string{"search"}},
			}, nil
		})
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "Write about Go")
	require.NoError(t, err)

	require.Len(t, res.SubTasks, 2)
	assert.False(t, res.SubTasks[0].Available)
	assert.True(t, strings.HasPrefix(res.SubTasks[0].Text, "[unavailable: "))
	assert.True(t, res.SubTasks[1].Available)

	assert.Contains(t, res.Text, "writer answered")
	assert.Contains(t, res.Text, "Unavailable contributions")
	assert.Contains(t, res.Text, "quota exceeded")
}

func TestGenerate_MemberConfigurationErrorAborts(t *testing.T) {
	confused := model.NewMockModel("confused", "mock")
	confused.SetHandler(func(context.Context, model.Request) (model.Response, error) {
		return model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "no-such-tool", Arguments: `{}`}}}, nil
	})

	n, err := New(Spec{Name: "Research Network", Members: []*agent.Agent{
		member(t, "Web Search Agent", "You search the web.", confused),
		member(t, "Content Creation Agent", "You write articles.", echoModel("writer")),
	}}, func(o *Options) {
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) {
			return []SubTask{
				{ID: "search", Description: "search", Agent: "Web Search Agent"},
				{ID: "write", Description: "write", Agent: "Content Creation Agent"},
			}, nil
		})
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "Write about Go")

	var cfg *core.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Contains(t, err.Error(), "no-such-tool")
	assert.Nil(t, res)
}

func TestGenerate_DependentsReceiveDependencyResults(t *testing.T) {
	writer := echoModel("writer")
	n, err := New(Spec{Name: "n", Members: []*agent.Agent{
		member(t, "Searcher", "search", echoModel("searcher")),
		member(t, "Writer", "write", writer),
	}}, func(o *Options) {
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) {
			return []SubTask{
				{ID: "t1", Description: "find facts", Agent: "Searcher"},
				{ID: "t2", Description: "draft", Agent: "Writer", DependsOn: []string{"t1"}},
			}, nil
		})
	})
	require.NoError(t, err)

	_, err = n.Generate(context.Background(), "goal")
	require.NoError(t, err)

	reqs := writer.Requests()
	require.Len(t, reqs, 1)
	prompt := reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "Your sub-task: draft")
	assert.Contains(t, prompt, "searcher answered")
}

func TestGenerate_AllFailIsExhausted(t *testing.T) {
	backend := &core.ToolExecutionError{Tool: "tavily-search", StatusCode: 500}

	failingTool := tool.New(tool.Spec{
		ID:    "tavily-search",
		Input: schema.Object(schema.Prop("query", schema.String())),
		Execute: func(context.Context, map[string]any) (any, error) {
			return nil, backend
		},
	})

	callsTool := func() *model.MockModel {
		m := model.NewMockModel("m", "mock")
		m.SetHandler(func(context.Context, model.Request) (model.Response, error) {
			return model.Response{ToolCalls: []core.ToolCall{{ID: "1", Name: "tavily-search", Arguments: `{"query":"x"}`}}}, nil
		})
		return m
	}

	n, err := New(Spec{Name: "Research Network", Members: []*agent.Agent{
		member(t, "A", "search", callsTool(), failingTool),
		member(t, "B", "search too", callsTool(), failingTool),
	}}, func(o *Options) {
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) {
			return []SubTask{{Agent: "A", Description: "x"}, {Agent: "B", Description: "y"}}, nil
		})
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "anything")

	assert.Nil(t, res)
	var nee *core.NetworkExhaustedError
	require.ErrorAs(t, err, &nee)
	assert.Len(t, nee.Failures, 2)

	var tee *core.ToolExecutionError
	assert.ErrorAs(t, err, &tee)
}

func TestGenerate_InvalidPlanIsConfigurationError(t *testing.T) {
	a := member(t, "A", "x", echoModel("a"))

	plans := map[string][]SubTask{
		"unknown agent": {{ID: "1", Agent: "Ghost"}},
		"unknown dep":   {{ID: "1", Agent: "A", DependsOn: []string{"2"}}},
		"cycle": {
			{ID: "1", Agent: "A", DependsOn: []string{"2"}},
			{ID: "2", Agent: "A", DependsOn: []string{"1"}},
		},
		"duplicate id": {{ID: "1", Agent: "A"}, {ID: "1", Agent: "A"}},
	}

	for name, plan := range plans {
		t.Run(name, func(t *testing.T) {
			n, err := New(Spec{Name: "n", Members: []*agent.Agent{a}}, func(o *Options) {
				o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) { return plan, nil })
			})
			require.NoError(t, err)

			_, err = n.Generate(context.Background(), "goal")
			var cfg *core.ConfigurationError
			assert.ErrorAs(t, err, &cfg)
		})
	}
}

func TestGenerate_EmptyPlanFallsBackToKeywords(t *testing.T) {
	n, err := New(Spec{Name: "n", Members: []*agent.Agent{member(t, "A", "x", echoModel("a"))}}, func(o *Options) {
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) { return nil, nil })
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Len(t, res.SubTasks, 1)
}

func TestGenerate_IndependentSubTasksRunConcurrently(t *testing.T) {
	var inflight, peak atomic.Int32
	slow := model.NewMockModel("slow", "mock")
	slow.SetHandler(func(ctx context.Context, _ model.Request) (model.Response, error) {
		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		return model.Response{Text: "ok"}, nil
	})

	n, err := New(Spec{Name: "n", Members: []*agent.Agent{member(t, "A", "x", slow)}}, func(o *Options) {
		o.MaxConcurrency = 2
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) {
			return []SubTask{{Agent: "A"}, {Agent: "A"}, {Agent: "A"}, {Agent: "A"}}, nil
		})
	})
	require.NoError(t, err)

	_, err = n.Generate(context.Background(), "goal")
	require.NoError(t, err)

	assert.Equal(t, int32(2), peak.Load())
}

func TestGenerate_AgentTimeout(t *testing.T) {
	slow := model.NewMockModel("slow", "mock")
	slow.SetHandler(func(ctx context.Context, _ model.Request) (model.Response, error) {
		<-ctx.Done()
		return model.Response{}, ctx.Err()
	})

	n, err := New(Spec{Name: "n", Members: []*agent.Agent{
		member(t, "Slow", "x", slow),
		member(t, "Fast", "y", echoModel("fast")),
	}}, func(o *Options) {
		o.AgentTimeout = 20 * time.Millisecond
		o.Router = RouterFunc(func(context.Context, string, []RosterEntry) ([]SubTask, error) {
			return []SubTask{{Agent: "Slow"}, {Agent: "Fast"}}, nil
		})
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "goal")
	require.NoError(t, err)

	var te *core.TimeoutError
	assert.ErrorAs(t, res.SubTasks[0].Err, &te)
	assert.True(t, res.SubTasks[1].Available)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := New(Spec{Name: "n", Members: []*agent.Agent{member(t, "A", "x", echoModel("a"))}})
	require.NoError(t, err)

	_, err = n.Generate(ctx, "goal")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_ModelSynthesizer(t *testing.T) {
	coordinator := model.NewMockModel("coordinator", "mock")
	coordinator.Enqueue(
		model.Response{Text: "```json\n{\"subtasks\":[{\"id\":\"t1\",\"description\":\"look it up\",\"agent\":\"Web Search Agent\"}]}\n```"},
		model.Response{Text: "Final synthesized answer."},
	)

	n, err := New(Spec{
		Name:         "Research Network",
		Instructions: "You coordinate research.",
		Model:        coordinator,
		Members:      []*agent.Agent{member(t, "Web Search Agent", "search", echoModel("search"))},
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "Who are notable AI agent researchers?")
	require.NoError(t, err)

	assert.Equal(t, "Final synthesized answer.", res.Text)

	reqs := coordinator.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].System, "You coordinate research.")
	assert.Contains(t, reqs[1].Messages[0].Content, "search answered")
}

func TestGenerate_SynthesizerFailureFallsBackToSections(t *testing.T) {
	n, err := New(Spec{Name: "n", Members: []*agent.Agent{member(t, "A", "x", echoModel("a"))}}, func(o *Options) {
		o.Synthesizer = &ModelSynthesizer{Model: failingModel(errors.New("down"))}
	})
	require.NoError(t, err)

	res, err := n.Generate(context.Background(), "goal")
	require.NoError(t, err)
	assert.Equal(t, "## A\n\na answered", res.Text)
}
