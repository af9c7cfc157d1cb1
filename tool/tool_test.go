package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/metrics"
	"github.com/hupe1980/agentnet/schema"
)

func sumSpec(calls *int) Spec {
	return Spec{
		ID:          "calculate-sum",
		Description: "Calculate the sum of two numbers",
		Input:       schema.Object(schema.Prop("a", schema.Number()), schema.Prop("b", schema.Number())),
		Output:      schema.Number(),
		Execute: func(_ context.Context, in map[string]any) (any, error) {
			*calls++
			return in["a"].(float64) + in["b"].(float64), nil
		},
	}
}

func TestFunctionTool_Success(t *testing.T) {
	calls := 0
	tl := New(sumSpec(&calls))

	out, err := tl.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})

	require.NoError(t, err)
	assert.Equal(t, 5.0, out)
	assert.Equal(t, 1, calls)
	assert.NoError(t, tl.OutputSchema().Validate(out))
}

func TestFunctionTool_ValidationNeverCallsBackend(t *testing.T) {
	calls := 0
	tl := New(sumSpec(&calls))

	_, err := tl.Call(context.Background(), map[string]any{"a": "two"})

	var sve *core.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.ElementsMatch(t, []string{"a", "b"}, sve.FieldPaths())
	assert.Equal(t, 0, calls)
}

func TestFunctionTool_WrapsUntypedErrors(t *testing.T) {
	boom := errors.New("connection reset")
	tl := New(Spec{
		ID:      "flaky",
		Execute: func(context.Context, map[string]any) (any, error) { return nil, boom },
	})

	_, err := tl.Call(context.Background(), nil)

	var tee *core.ToolExecutionError
	require.ErrorAs(t, err, &tee)
	assert.Equal(t, "flaky", tee.Tool)
	assert.ErrorIs(t, err, boom)
}

func TestFunctionTool_PassesTypedErrors(t *testing.T) {
	cfg := core.NewConfigurationError("tavily-search", "TAVILY_API_KEY is not set")
	tl := New(Spec{
		ID:      "tavily-search",
		Execute: func(context.Context, map[string]any) (any, error) { return nil, cfg },
	})

	_, err := tl.Call(context.Background(), nil)
	assert.Same(t, cfg, err)
}

func TestFunctionTool_Timeout(t *testing.T) {
	tl := New(Spec{
		ID: "slow",
		Execute: func(ctx context.Context, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}, func(o *Options) { o.Timeout = 10 * time.Millisecond })

	_, err := tl.Call(context.Background(), nil)

	var te *core.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "tool slow", te.Operation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFunctionTool_CallerCancellationIsNotWrapped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tl := New(Spec{
		ID:      "cancelled",
		Execute: func(ctx context.Context, _ map[string]any) (any, error) { return nil, ctx.Err() },
	}, func(o *Options) { o.Timeout = time.Second })

	_, err := tl.Call(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)

	var tee *core.ToolExecutionError
	assert.False(t, errors.As(err, &tee))
}

func TestFunctionTool_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	calls := 0
	tl := New(sumSpec(&calls), func(o *Options) { o.Metrics = m })

	_, _ = tl.Call(context.Background(), map[string]any{"a": 1.0, "b": 1.0})
	_, _ = tl.Call(context.Background(), map[string]any{})

	assert.Equal(t, 1, calls)
}

func TestNewTyped_DecodesInput(t *testing.T) {
	type in struct {
		City string `json:"city"`
		Days int    `json:"days,omitempty"`
	}

	tl := NewTyped(TypedSpec[in, string]{
		ID:     "echo-city",
		Input:  schema.Object(schema.Prop("city", schema.String()), schema.Opt("days", schema.Integer())),
		Output: schema.String(),
		Execute: func(_ context.Context, v in) (string, error) {
			return v.City + "/" + string(rune('0'+v.Days)), nil
		},
	})

	out, err := tl.Call(context.Background(), map[string]any{"city": "Tokyo", "days": 3.0})

	require.NoError(t, err)
	assert.Equal(t, "Tokyo/3", out)
}

func TestDefinition(t *testing.T) {
	calls := 0
	def := Definition(New(sumSpec(&calls)))

	assert.Equal(t, "calculate-sum", def.Name)
	assert.Equal(t, "object", def.Parameters["type"])
	assert.Equal(t, []string{"a", "b"}, def.Parameters["required"])

	def = Definition(New(Spec{ID: "no-input"}))
	assert.Equal(t, "object", def.Parameters["type"])
}

func TestSet(t *testing.T) {
	calls := 0
	set := Set(New(sumSpec(&calls)), New(Spec{ID: "other"}))

	assert.Len(t, set, 2)
	assert.Contains(t, set, "calculate-sum")
}
