package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/workflow"
)

func stubForecaster(days int) Forecaster {
	return ForecasterFunc(func(_ context.Context, city string) ([]Forecast, error) {
		out := make([]Forecast, 0, days)
		for i := range days {
			out = append(out, Forecast{
				Date:                fmt.Sprintf("2026-10-%02d", 18+i),
				MaxTemp:             22,
				MinTemp:             15,
				PrecipitationChance: 10,
				Condition:           "Clear sky",
				Location:            city,
			})
		}
		return out, nil
	})
}

func newWorkflow(t *testing.T, f Forecaster, llm model.Model) *workflow.Workflow {
	t.Helper()
	a, err := NewAgent(llm)
	require.NoError(t, err)
	wf, err := New(f, a)
	require.NoError(t, err)
	return wf
}

func TestWorkflow_Tokyo(t *testing.T) {
	llm := model.NewMockModel("weather", "mock")
	llm.SetHandler(func(_ context.Context, req model.Request) (model.Response, error) {
		return model.Response{Text: "Morning: visit Senso-ji. Evening: ramen in Shinjuku."}, nil
	})

	wf := newWorkflow(t, stubForecaster(3), llm)

	var chunks []string
	res, err := wf.Run(context.Background(), Trigger{City: "Tokyo"}, func(o *workflow.RunOptions) {
		o.Watch = func(ev workflow.Event) {
			if ev.Type == workflow.EventStepChunk {
				assert.Equal(t, PlanStepID, ev.Step)
				chunks = append(chunks, ev.Chunk)
			}
		}
	})
	require.NoError(t, err)

	fetched, ok := res.Results.Get(FetchStepID)
	require.True(t, ok)
	forecast := fetched.([]Forecast)
	require.NotEmpty(t, forecast)
	assert.Equal(t, "Tokyo", forecast[0].Location)
	assert.NoError(t, ForecastSchema.Validate(forecast))

	plan := res.Output.(Plan)
	assert.Equal(t, "Morning: visit Senso-ji. Evening: ramen in Shinjuku.", plan.Activities)
	assert.Equal(t, plan.Activities, strings.Join(chunks, ""))
	assert.NoError(t, PlanSchema.Validate(plan))

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].Stream)
	assert.Contains(t, reqs[0].Messages[0].Content, "weather forecast for Tokyo")
	assert.Contains(t, reqs[0].Messages[0].Content, `"condition": "Clear sky"`)
}

func TestWorkflow_EmptyForecastAbortsBeforePlanning(t *testing.T) {
	llm := model.NewMockModel("weather", "mock")
	wf := newWorkflow(t, stubForecaster(0), llm)

	_, err := wf.Run(context.Background(), map[string]any{"city": "Atlantis"})

	var missing *core.StepInputMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, PlanStepID, missing.Step)
	assert.Equal(t, FetchStepID, missing.Dependency)
	assert.Empty(t, llm.Requests())
}

func TestWorkflow_FetchFailureAborts(t *testing.T) {
	llm := model.NewMockModel("weather", "mock")
	backend := &core.ToolExecutionError{Tool: "open-meteo", StatusCode: 502}
	wf := newWorkflow(t, ForecasterFunc(func(context.Context, string) ([]Forecast, error) {
		return nil, backend
	}), llm)

	res, err := wf.Run(context.Background(), Trigger{City: "Tokyo"})

	var se *workflow.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, FetchStepID, se.Step)
	assert.ErrorIs(t, err, backend)
	assert.Nil(t, res.Output)
	assert.Empty(t, llm.Requests())
}

func TestWorkflow_InvalidTrigger(t *testing.T) {
	wf := newWorkflow(t, stubForecaster(1), model.NewMockModel("weather", "mock"))

	_, err := wf.Run(context.Background(), map[string]any{"town": "Tokyo"})
	var sve *core.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, []string{"city"}, sve.FieldPaths())
}

func TestOpenMeteo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geo", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "Tokyo" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"name":"Tokyo","latitude":35.6895,"longitude":139.69171}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "35.6895", r.URL.Query().Get("latitude"))
		assert.Contains(t, r.URL.Query().Get("daily"), "weathercode")
		_, _ = w.Write([]byte(`{"daily":{
			"time":["2026-10-18","2026-10-19"],
			"temperature_2m_max":[21.5,19.0],
			"temperature_2m_min":[14.2,13.1],
			"precipitation_probability_mean":[5,80],
			"weathercode":[1,63]}}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	om := NewOpenMeteo(func(o *OpenMeteoOptions) {
		o.GeocodingURL = srv.URL + "/geo"
		o.ForecastURL = srv.URL + "/forecast"
	})

	t.Run("forecast", func(t *testing.T) {
		got, err := om.Forecast(context.Background(), "Tokyo")
		require.NoError(t, err)
		assert.Equal(t, []Forecast{
			{Date: "2026-10-18", MaxTemp: 21.5, MinTemp: 14.2, PrecipitationChance: 5, Condition: "Mainly clear", Location: "Tokyo"},
			{Date: "2026-10-19", MaxTemp: 19.0, MinTemp: 13.1, PrecipitationChance: 80, Condition: "Moderate rain", Location: "Tokyo"},
		}, got)
	})

	t.Run("unknown city", func(t *testing.T) {
		got, err := om.Forecast(context.Background(), "Atlantis")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("backend error", func(t *testing.T) {
		broken := NewOpenMeteo(func(o *OpenMeteoOptions) { o.GeocodingURL = srv.URL + "/broken" })
		_, err := broken.Forecast(context.Background(), "Tokyo")

		var te *core.ToolExecutionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
		assert.Equal(t, "upstream down", te.Body)
	})
}
