package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
)

func TestAgent_StreamMatchesGenerate(t *testing.T) {
	script := func() *model.MockModel {
		llm := model.NewMockModel("mock", "mock")
		llm.Enqueue(
			model.Response{Text: "Checking.", ToolCalls: []core.ToolCall{{ID: "c1", Name: "get-weather", Arguments: `{"location":"Tokyo"}`}}},
			model.Response{Text: "Sunny, 24°C."},
		)
		return llm
	}

	newTool := func() *mockTool {
		wt := &mockTool{}
		wt.On("Call", mock.Anything, mock.Anything).Return("sunny", nil)
		return wt
	}

	msgs := []core.Message{core.UserMessage("weather in Tokyo?")}

	res, err := newAgent(t, script(), newTool()).Generate(context.Background(), msgs)
	require.NoError(t, err)

	stream, err := newAgent(t, script(), newTool()).Stream(context.Background(), msgs)
	require.NoError(t, err)

	var chunks []string
	for c := range stream.Chunks(context.Background()) {
		chunks = append(chunks, c)
	}
	require.NoError(t, stream.Err())

	assert.Equal(t, "Checking.\n\nSunny, 24°C.", res.Text)
	assert.Equal(t, res.Text, stream.Text())
	assert.Greater(t, len(chunks), 2)

	for range stream.Chunks(context.Background()) {
		t.Fatal("stream must not restart")
	}
}

func TestAgent_StreamIsLazy(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	a := newAgent(t, llm)

	stream, err := a.Stream(context.Background(), []core.Message{core.UserMessage("hi")})
	require.NoError(t, err)
	assert.Empty(t, llm.Requests())

	text, err := stream.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hi", text)
	assert.True(t, llm.Requests()[0].Stream)
}

func TestAgent_StreamEarlyBreak(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.Enqueue(model.Response{Text: "abcdef"})
	a := newAgent(t, llm)

	stream, err := a.Stream(context.Background(), []core.Message{core.UserMessage("hi")})
	require.NoError(t, err)

	for c := range stream.Chunks(context.Background()) {
		if c == "c" {
			break
		}
	}

	assert.Equal(t, "abc", stream.Text())
	assert.NoError(t, stream.Err())
}
