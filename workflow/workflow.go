package workflow

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/metrics"
	"github.com/hupe1980/agentnet/schema"
)

// Options configures a Workflow.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	// StepTimeout bounds each step body; zero disables it.
	StepTimeout time.Duration
}

// Workflow is a chain of steps. It is built with Step and Then, frozen with
// Commit and then safe for concurrent runs.
type Workflow struct {
	name    string
	trigger schema.Schema
	opts    Options

	mu        sync.Mutex
	steps     []Step
	buildErrs []string
	committed bool
	commitErr error
}

// New starts building a workflow whose runs accept payloads matching
// trigger.
func New(name string, trigger schema.Schema, optFns ...func(o *Options)) *Workflow {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Workflow{name: name, trigger: trigger, opts: opts}
}

// Step appends a step to the chain. Errors are reported by Commit.
func (w *Workflow) Step(s *Step) *Workflow {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.committed:
		id := "<nil>"
		if s != nil {
			id = s.ID
		}
		w.buildErrs = append(w.buildErrs, fmt.Sprintf("step %s added after commit", id))
	case s == nil:
		w.buildErrs = append(w.buildErrs, fmt.Sprintf("step %d is nil", len(w.steps)+1))
	default:
		c := *s
		c.DependsOn = slices.Clone(s.DependsOn)
		w.steps = append(w.steps, c)
	}

	return w
}

// Then appends a step that runs after the previous one. Without explicit
// dependencies it consumes the previous step's output.
func (w *Workflow) Then(s *Step) *Workflow { return w.Step(s) }

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// TriggerSchema returns the schema run payloads are validated against.
func (w *Workflow) TriggerSchema() schema.Schema { return w.trigger }

// Committed reports whether Commit succeeded.
func (w *Workflow) Committed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.committed && w.commitErr == nil
}

// StepIDs returns the step ids in execution order.
func (w *Workflow) StepIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]string, 0, len(w.steps))
	for _, s := range w.steps {
		ids = append(ids, s.ID)
	}
	return ids
}

// Commit validates and freezes the chain. Every dependency must name the
// trigger or an earlier step, and each step's input schema must be
// satisfiable by its source. Commit is idempotent: later calls return the
// first result, except that steps added after a successful commit are
// reported and ignored.
func (w *Workflow) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.committed {
		if w.commitErr == nil && len(w.buildErrs) > 0 {
			return core.NewConfigurationError(w.component(), "%s", strings.Join(w.buildErrs, "; "))
		}
		return w.commitErr
	}

	w.committed = true
	w.commitErr = w.validate()
	if w.commitErr != nil {
		w.opts.Logger.Error("workflow.commit.error", "workflow", w.name, "error", w.commitErr.Error())
	} else {
		w.opts.Logger.Debug("workflow.commit.complete", "workflow", w.name, "steps", len(w.steps))
	}

	return w.commitErr
}

func (w *Workflow) component() string { return "workflow " + w.name }

func (w *Workflow) validate() error {
	component := w.component()

	if strings.TrimSpace(w.name) == "" {
		return core.NewConfigurationError("workflow", "name must not be empty")
	}
	if len(w.buildErrs) > 0 {
		return core.NewConfigurationError(component, "%s", strings.Join(w.buildErrs, "; "))
	}
	if len(w.steps) == 0 {
		return core.NewConfigurationError(component, "at least one step is required")
	}

	outputs := map[string]schema.Schema{TriggerID: w.trigger}
	for i, s := range w.steps {
		if strings.TrimSpace(s.ID) == "" {
			return core.NewConfigurationError(component, "step %d has an empty id", i+1)
		}
		if s.ID == TriggerID {
			return core.NewConfigurationError(component, "step id %q is reserved", TriggerID)
		}
		if _, dup := outputs[s.ID]; dup {
			return core.NewConfigurationError(component, "duplicate step id %q", s.ID)
		}
		if s.Execute == nil {
			return core.NewConfigurationError(component, "step %s has no execute function", s.ID)
		}

		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return core.NewConfigurationError(component, "step %s depends on itself", s.ID)
			}
			if _, ok := outputs[dep]; !ok {
				if w.indexOf(dep) > i {
					return core.NewConfigurationError(component, "step %s depends on later step %q", s.ID, dep)
				}
				return core.NewConfigurationError(component, "step %s depends on unknown step %q", s.ID, dep)
			}
		}

		src := w.sourceID(i)
		if err := schema.Compatible(outputs[src], s.InputSchema); err != nil {
			return &core.ConfigurationError{
				Component: component,
				Message:   fmt.Sprintf("step %s input is not satisfiable by %s", s.ID, src),
				Cause:     err,
			}
		}

		outputs[s.ID] = s.OutputSchema
	}

	return nil
}

func (w *Workflow) indexOf(id string) int {
	for i, s := range w.steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// sourceID names where step i takes its input from.
func (w *Workflow) sourceID(i int) string {
	s := w.steps[i]
	switch {
	case len(s.DependsOn) > 0:
		return s.DependsOn[0]
	case i > 0:
		return w.steps[i-1].ID
	default:
		return TriggerID
	}
}
