package workflow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/schema"
)

// TriggerID names the trigger payload in DependsOn lists and GetStepResult.
const TriggerID = "trigger"

// ExecuteFunc is the body of a step. The returned value becomes the step's
// entry in the run context.
type ExecuteFunc func(sc *StepContext) (any, error)

// Step is one unit of a workflow.
type Step struct {
	ID           string
	Description  string
	InputSchema  schema.Schema // Checked against the step's source at commit and run time
	OutputSchema schema.Schema
	// DependsOn lists earlier step ids (or TriggerID) whose results must be
	// present and non-empty before Execute runs. The first entry is the
	// step's source; without dependencies the source is the previous step,
	// or the trigger for the first step.
	DependsOn []string
	Execute   ExecuteFunc
}

// EventType classifies run events.
type EventType string

const (
	EventStepStart    EventType = "step.start"
	EventStepChunk    EventType = "step.chunk"
	EventStepComplete EventType = "step.complete"
	EventStepFailed   EventType = "step.failed"
)

// Event reports run progress to a WatchFunc.
type Event struct {
	Type   EventType
	RunID  string
	Step   string
	Chunk  string // Set for EventStepChunk
	Output any    // Set for EventStepComplete
	Err    error  // Set for EventStepFailed
}

// WatchFunc observes a run. It is called synchronously from the run
// goroutine and must not block for long.
type WatchFunc func(Event)

// StepContext is handed to a step body. It is only valid during the call.
type StepContext struct {
	Context context.Context

	runID  string
	step   *Step
	input  any
	rc     *RunContext
	watch  WatchFunc
	logger logging.Logger
}

// Done returns a channel closed when the step is cancelled or times out.
func (sc *StepContext) Done() <-chan struct{} { return sc.Context.Done() }

// Err returns the cancellation error, if any.
func (sc *StepContext) Err() error { return sc.Context.Err() }

// RunID identifies the run.
func (sc *StepContext) RunID() string { return sc.runID }

// StepID returns the id of the executing step.
func (sc *StepContext) StepID() string { return sc.step.ID }

// Logger returns the workflow logger.
func (sc *StepContext) Logger() logging.Logger { return sc.logger }

// Input returns the step's source value: its first dependency, else the
// previous step's output, else the trigger.
func (sc *StepContext) Input() any { return sc.input }

// TriggerData returns the validated trigger payload.
func (sc *StepContext) TriggerData() any { return sc.rc.Trigger() }

// GetStepResult returns the output of an earlier step of this run, or the
// trigger for TriggerID. It reports false when the step has not produced a
// result.
func (sc *StepContext) GetStepResult(id string) (any, bool) {
	return sc.rc.Get(id)
}

// Stream drains stream, appending every chunk in arrival order and
// forwarding each one to the run's watcher. The full text is returned only
// once the stream has ended.
func (sc *StepContext) Stream(stream *model.TextStream) (string, error) {
	var b strings.Builder

	for chunk := range stream.Chunks(sc.Context) {
		b.WriteString(chunk)
		if sc.watch != nil {
			sc.watch(Event{Type: EventStepChunk, RunID: sc.runID, Step: sc.step.ID, Chunk: chunk})
		}
	}

	if err := stream.Err(); err != nil {
		return b.String(), err
	}

	return b.String(), nil
}

// Result fetches the output of step id and converts it to T. A missing or
// empty result is a *core.StepInputMissingError.
func Result[T any](sc *StepContext, id string) (T, error) {
	var zero T

	v, ok := sc.GetStepResult(id)
	if !ok {
		return zero, &core.StepInputMissingError{Step: sc.StepID(), Dependency: id, Reason: "not available"}
	}
	if isEmpty(v) {
		return zero, &core.StepInputMissingError{Step: sc.StepID(), Dependency: id, Reason: "empty"}
	}

	if typed, ok := v.(T); ok {
		return typed, nil
	}

	generic, err := schema.Normalize(v)
	if err != nil {
		return zero, fmt.Errorf("step %s: result of %s: %w", sc.StepID(), id, err)
	}

	var out T
	if err := schema.Decode(generic, &out); err != nil {
		return zero, fmt.Errorf("step %s: result of %s: %w", sc.StepID(), id, err)
	}

	return out, nil
}

// isEmpty reports nil values and zero-length strings, slices, maps and
// arrays.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}

	return false
}

// StepError reports the step that aborted a run.
type StepError struct {
	Workflow string
	Step     string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow %s: step %s: %v", e.Workflow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

var errPanic = errors.New("step panicked")
