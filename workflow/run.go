package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/metrics"
)

// RunContext maps step ids to the outputs produced during one run. Callers
// of Run only get read access.
type RunContext struct {
	mu      sync.RWMutex
	trigger any
	results map[string]any
	order   []string
}

func newRunContext(trigger any) *RunContext {
	return &RunContext{trigger: trigger, results: map[string]any{}}
}

// Trigger returns the run's trigger payload.
func (rc *RunContext) Trigger() any { return rc.trigger }

// Get returns the output of step id, or the trigger for TriggerID.
func (rc *RunContext) Get(id string) (any, bool) {
	if id == TriggerID {
		return rc.trigger, true
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()

	v, ok := rc.results[id]
	return v, ok
}

// Completed returns the ids of the steps that produced a result, in order.
func (rc *RunContext) Completed() []string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return append([]string(nil), rc.order...)
}

// Snapshot returns a copy of all step outputs.
func (rc *RunContext) Snapshot() map[string]any {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return maps.Clone(rc.results)
}

func (rc *RunContext) set(id string, v any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.results[id] = v
	rc.order = append(rc.order, id)
}

// RunResult describes a run. On failure it still carries the context as of
// the last completed step.
type RunResult struct {
	RunID    string
	Workflow string
	Results  *RunContext
	Output   any // Output of the last step; nil unless the run succeeded
	Duration time.Duration
}

// RunOptions configures a single run.
type RunOptions struct {
	Watch WatchFunc
}

// Run validates trigger and executes the committed steps in order. The first
// failing step aborts the run with a *StepError; cancellation aborts it with
// the context error. The RunResult is returned in both cases.
func (w *Workflow) Run(ctx context.Context, trigger any, optFns ...func(o *RunOptions)) (*RunResult, error) {
	w.mu.Lock()
	ready := w.committed && w.commitErr == nil
	steps := w.steps
	w.mu.Unlock()

	if !ready {
		return nil, core.NewConfigurationError(w.component(), "workflow must be committed before it can run")
	}

	var ro RunOptions
	for _, fn := range optFns {
		fn(&ro)
	}

	if err := w.trigger.ValidateNamed("workflow "+w.name+" trigger", trigger); err != nil {
		return nil, err
	}

	logger := w.opts.Logger
	start := time.Now()
	rc := newRunContext(trigger)
	res := &RunResult{RunID: core.NewID(), Workflow: w.name, Results: rc}

	logger.Info("workflow.run.start", "workflow", w.name, "run", res.RunID, "steps", len(steps))

	for i := range steps {
		step := &steps[i]

		if err := ctx.Err(); err != nil {
			logger.Warn("workflow.run.cancelled", "workflow", w.name, "run", res.RunID, "step", step.ID)
			res.Duration = time.Since(start)
			return res, err
		}

		out, err := w.runStep(ctx, res.RunID, rc, step, w.source(rc, i), ro.Watch)
		if err != nil {
			res.Duration = time.Since(start)
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, &StepError{Workflow: w.name, Step: step.ID, Err: err}
		}

		rc.set(step.ID, out)
		res.Output = out
	}

	res.Duration = time.Since(start)
	logger.Info("workflow.run.complete", "workflow", w.name, "run", res.RunID, "duration_ms", res.Duration.Milliseconds())

	return res, nil
}

func (w *Workflow) source(rc *RunContext, i int) any {
	v, _ := rc.Get(w.sourceID(i))
	return v
}

func (w *Workflow) runStep(ctx context.Context, runID string, rc *RunContext, step *Step, input any, watch WatchFunc) (out any, err error) {
	logger := w.opts.Logger
	start := time.Now()

	emit := func(ev Event) {
		if watch != nil {
			ev.RunID, ev.Step = runID, step.ID
			watch(ev)
		}
	}

	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
			var te *core.TimeoutError
			if errors.As(err, &te) {
				outcome = metrics.OutcomeTimeout
			}
			logger.Error("workflow.step.error", "workflow", w.name, "run", runID, "step", step.ID, "error", err.Error())
			emit(Event{Type: EventStepFailed, Err: err})
		} else {
			logger.Info("workflow.step.complete", "workflow", w.name, "run", runID, "step", step.ID, "duration_ms", time.Since(start).Milliseconds())
			emit(Event{Type: EventStepComplete, Output: out})
		}
		w.opts.Metrics.ObserveStep(w.name, step.ID, outcome, time.Since(start))
	}()

	for _, dep := range step.DependsOn {
		v, ok := rc.Get(dep)
		switch {
		case !ok:
			return nil, &core.StepInputMissingError{Step: step.ID, Dependency: dep, Reason: "not available"}
		case isEmpty(v):
			return nil, &core.StepInputMissingError{Step: step.ID, Dependency: dep, Reason: "empty"}
		}
	}

	if err := step.InputSchema.ValidateNamed("step "+step.ID+" input", input); err != nil {
		return nil, err
	}

	logger.Debug("workflow.step.start", "workflow", w.name, "run", runID, "step", step.ID)
	emit(Event{Type: EventStepStart})

	stepCtx, cancel := core.CallContext(ctx, w.opts.StepTimeout)
	defer cancel()

	out, err = w.execute(&StepContext{
		Context: stepCtx,
		runID:   runID,
		step:    step,
		input:   input,
		rc:      rc,
		watch:   watch,
		logger:  logger,
	})

	if err != nil {
		return nil, core.AsTimeout(ctx, err, "step "+step.ID, w.opts.StepTimeout)
	}

	return out, nil
}

func (w *Workflow) execute(sc *StepContext) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	return sc.step.Execute(sc)
}
