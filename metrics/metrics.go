// Package metrics exposes Prometheus collectors for tool calls, network
// sub-tasks and workflow steps. A nil *Metrics is valid and records nothing,
// so components accept it as an optional dependency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
	OutcomeTimeout = "timeout"
)

// Metrics groups the agentnet collectors.
type Metrics struct {
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	subTasks     *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentnet_tool_calls_total",
				Help: "Total number of tool calls by outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentnet_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		subTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentnet_subtasks_total",
				Help: "Total number of network sub-tasks by agent and outcome",
			},
			[]string{"network", "agent", "outcome"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentnet_workflow_steps_total",
				Help: "Total number of workflow step executions by outcome",
			},
			[]string{"workflow", "step", "outcome"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentnet_workflow_step_duration_seconds",
				Help:    "Duration of workflow step executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow", "step"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.toolCalls, m.toolDuration, m.subTasks, m.steps, m.stepDuration)
	}

	return m
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveSubTask records one dispatched sub-task.
func (m *Metrics) ObserveSubTask(network, agent, outcome string) {
	if m == nil {
		return
	}
	m.subTasks.WithLabelValues(network, agent, outcome).Inc()
}

// ObserveStep records one workflow step execution.
func (m *Metrics) ObserveStep(workflow, step, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(workflow, step, outcome).Inc()
	m.stepDuration.WithLabelValues(workflow, step).Observe(d.Seconds())
}
