package weather

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentnet/agent"
	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/schema"
	"github.com/hupe1980/agentnet/workflow"
)

// Identifiers of the workflow and its steps.
const (
	WorkflowName = "weather-workflow"
	FetchStepID  = "fetch-weather"
	PlanStepID   = "plan-activities"
	AgentName    = "Weather Agent"
)

// Trigger is the run payload.
type Trigger struct {
	City string `json:"city"`
}

// Plan is the output of plan-activities.
type Plan struct {
	Activities string `json:"activities"`
}

// TriggerSchema validates run payloads.
var TriggerSchema = schema.Object(
	schema.Prop("city", schema.String().Describe("The city to get the weather for")),
)

// PlanSchema describes the output of plan-activities.
var PlanSchema = schema.Object(schema.Prop("activities", schema.String()))

const agentInstructions = `You are a local activities and travel expert who excels at weather-based planning.
Analyze the weather data and provide practical activity recommendations.
For each day in the forecast, structure your response with:
- the date and a short weather summary
- two or three outdoor activities with the best timing, when conditions allow
- one or two indoor alternatives
- special considerations such as heat, rain or UV
Keep suggestions specific to the location and mention concrete venues where you can.`

// NewAgent returns the weather agent that plans activities.
func NewAgent(llm model.Model, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	return agent.New(agent.Spec{
		Name:         AgentName,
		Instructions: agentInstructions,
		Model:        llm,
	}, optFns...)
}

// NewFetchStep returns the fetch-weather step.
func NewFetchStep(f Forecaster) *workflow.Step {
	return &workflow.Step{
		ID:           FetchStepID,
		Description:  "Fetches the weather forecast for a given city",
		InputSchema:  TriggerSchema,
		OutputSchema: ForecastSchema,
		Execute: func(sc *workflow.StepContext) (any, error) {
			generic, err := schema.Normalize(sc.TriggerData())
			if err != nil {
				return nil, err
			}
			var trigger Trigger
			if err := schema.Decode(generic, &trigger); err != nil {
				return nil, err
			}
			return f.Forecast(sc.Context, trigger.City)
		},
	}
}

// NewPlanStep returns the plan-activities step. The agent's answer is
// streamed and forwarded chunk by chunk to the run watcher.
func NewPlanStep(a *agent.Agent) *workflow.Step {
	return &workflow.Step{
		ID:           PlanStepID,
		Description:  "Suggests activities based on weather conditions",
		InputSchema:  ForecastSchema,
		OutputSchema: PlanSchema,
		DependsOn:    []string{FetchStepID},
		Execute: func(sc *workflow.StepContext) (any, error) {
			forecast, err := workflow.Result[[]Forecast](sc, FetchStepID)
			if err != nil {
				return nil, err
			}

			prompt, err := planPrompt(forecast)
			if err != nil {
				return nil, err
			}

			stream, err := a.Stream(sc.Context, []core.Message{core.UserMessage(prompt)})
			if err != nil {
				return nil, err
			}

			text, err := sc.Stream(stream)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("weather agent returned no activities")
			}

			return Plan{Activities: text}, nil
		},
	}
}

func planPrompt(forecast []Forecast) (string, error) {
	data, err := json.MarshalIndent(forecast, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Based on the following weather forecast for %s, suggest appropriate activities:\n%s\n",
		forecast[0].Location, data), nil
}

// New builds and commits the weather-workflow.
func New(f Forecaster, a *agent.Agent, optFns ...func(o *workflow.Options)) (*workflow.Workflow, error) {
	wf := workflow.New(WorkflowName, TriggerSchema, optFns...).
		Step(NewFetchStep(f)).
		Then(NewPlanStep(a))

	if err := wf.Commit(); err != nil {
		return nil, err
	}

	return wf, nil
}
