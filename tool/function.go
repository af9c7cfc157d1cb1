package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/metrics"
	"github.com/hupe1980/agentnet/schema"
)

// ExecuteFunc is the backend of a FunctionTool. It only ever receives input
// that passed validation.
type ExecuteFunc func(ctx context.Context, input map[string]any) (any, error)

// Spec declares a tool: identity, description shown to models, input and
// output schemas and the executing function.
type Spec struct {
	ID          string
	Description string
	Input       schema.Schema
	Output      schema.Schema
	Execute     ExecuteFunc
}

// Options configure a FunctionTool.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	// Timeout bounds one execution; zero disables it.
	Timeout time.Duration
}

// FunctionTool is a generic adapter that exposes a plain Go function as a tool.
//
// Responsibilities:
//   - Validates supplied arguments against the input schema before execution
//   - Bounds execution by the configured timeout
//   - Normalizes errors so callers receive the core taxonomy:
//     validation failure  -> *core.SchemaValidationError (Execute not called)
//     deadline            -> *core.TimeoutError
//     typed error         -> forwarded unchanged
//     other error         -> *core.ToolExecutionError wrapping the cause
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	spec Spec
	opts Options
}

// New constructs a FunctionTool from a Spec.
//
// Example:
//
//	sum := tool.New(tool.Spec{
//	    ID:          "calculate-sum",
//	    Description: "Calculate the sum of two numbers",
//	    Input:       schema.Object(schema.Prop("a", schema.Number()), schema.Prop("b", schema.Number())),
//	    Output:      schema.Number(),
//	    Execute: func(ctx context.Context, in map[string]any) (any, error) {
//	        return in["a"].(float64) + in["b"].(float64), nil
//	    },
//	})
func New(spec Spec, optFns ...func(o *Options)) *FunctionTool {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &FunctionTool{spec: spec, opts: opts}
}

// Name returns the tool id.
func (t *FunctionTool) Name() string { return t.spec.ID }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.spec.Description }

// InputSchema returns the input schema.
func (t *FunctionTool) InputSchema() schema.Schema { return t.spec.Input }

// OutputSchema returns the output schema.
func (t *FunctionTool) OutputSchema() schema.Schema { return t.spec.Output }

// Call validates args then invokes Execute.
//
// Logging Fields:
//
//	tool: tool name
//	duration_ms: execution time in milliseconds
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	logger := t.opts.Logger
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.spec.ID)

	if args == nil {
		args = map[string]any{}
	}

	if err := t.spec.Input.ValidateNamed(fmt.Sprintf("tool %s input", t.spec.ID), args); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.spec.ID, "error", err.Error())
		t.opts.Metrics.ObserveTool(t.spec.ID, metrics.OutcomeInvalid, time.Since(start))

		return nil, err
	}

	if t.spec.Execute == nil {
		return nil, core.NewConfigurationError("tool "+t.spec.ID, "no execute function")
	}

	callCtx, cancel := core.CallContext(ctx, t.opts.Timeout)
	defer cancel()

	result, err := t.spec.Execute(callCtx, args)
	if err == nil && callCtx.Err() != nil && ctx.Err() == nil {
		err = callCtx.Err()
	}

	if err != nil {
		err = t.normalizeError(ctx, err)

		outcome := metrics.OutcomeError
		var te *core.TimeoutError
		if errors.As(err, &te) {
			outcome = metrics.OutcomeTimeout
		}

		logger.Error("tool.call.error", "tool", t.spec.ID, "error", err.Error())
		t.opts.Metrics.ObserveTool(t.spec.ID, outcome, time.Since(start))

		return nil, err
	}

	logger.Info("tool.call.success", "tool", t.spec.ID, "duration_ms", time.Since(start).Milliseconds())
	t.opts.Metrics.ObserveTool(t.spec.ID, metrics.OutcomeSuccess, time.Since(start))

	return result, nil
}

func (t *FunctionTool) normalizeError(ctx context.Context, err error) error {
	err = core.AsTimeout(ctx, err, "tool "+t.spec.ID, t.opts.Timeout)

	if core.IsTyped(err) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return err
	}

	return &core.ToolExecutionError{Tool: t.spec.ID, Cause: err}
}
