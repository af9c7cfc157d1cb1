package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/metrics"
)

// decompose runs the router and validates its plan. An empty plan falls
// back to the keyword router.
func (n *Network) decompose(ctx context.Context, goal string) ([]SubTask, error) {
	plan, err := n.opts.Router.Decompose(ctx, goal, n.Roster())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if core.IsTyped(err) {
			return nil, err
		}
		return nil, fmt.Errorf("network %s: decompose: %w", n.name, err)
	}

	if len(plan) == 0 {
		n.opts.Logger.Warn("network.decompose.empty", "network", n.name)
		if plan, err = (KeywordRouter{}).Decompose(ctx, goal, n.Roster()); err != nil {
			return nil, err
		}
	}

	return validatePlan(n.name, plan, n.roster)
}

// dispatch runs the plan wave by wave. Sub-tasks within a wave are
// independent and run concurrently; each writes only its own result slot.
// Failures are collected, never propagated, unless the caller cancels or a
// member reports a *core.ConfigurationError, which aborts the run.
func (n *Network) dispatch(ctx context.Context, runID, goal string, plan []SubTask) ([]SubTaskResult, error) {
	levels, err := waves(plan)
	if err != nil {
		return nil, core.NewConfigurationError("network "+n.name, "%s", err.Error())
	}

	index := make(map[string]int, len(plan))
	for i, st := range plan {
		index[st.ID] = i
	}

	results := make([]SubTaskResult, len(plan))

	for _, wave := range levels {
		g, gctx := errgroup.WithContext(ctx)
		if n.opts.MaxConcurrency > 0 {
			g.SetLimit(n.opts.MaxConcurrency)
		}

		for _, st := range wave {
			deps := make([]SubTaskResult, 0, len(st.DependsOn))
			for _, dep := range st.DependsOn {
				deps = append(deps, results[index[dep]])
			}

			slot := &results[index[st.ID]]
			g.Go(func() error {
				*slot = n.runSubTask(gctx, runID, goal, st, deps)

				var cfgErr *core.ConfigurationError
				if errors.As(slot.Err, &cfgErr) {
					return slot.Err
				}
				return nil
			})
		}

		waitErr := g.Wait()

		if err := ctx.Err(); err != nil {
			n.opts.Logger.Warn("network.dispatch.cancelled", "network", n.name, "run", runID, "error", err.Error())
			return nil, err
		}
		if waitErr != nil {
			n.opts.Logger.Error("network.dispatch.aborted", "network", n.name, "run", runID, "error", waitErr.Error())
			return nil, waitErr
		}
	}

	return results, nil
}

func (n *Network) runSubTask(ctx context.Context, runID, goal string, st SubTask, deps []SubTaskResult) SubTaskResult {
	logger := n.opts.Logger
	start := time.Now()
	member := n.byName[st.Agent]

	logger.Debug("network.subtask.start", "network", n.name, "run", runID, "subtask", st.ID, "agent", st.Agent)

	callCtx, cancel := core.CallContext(ctx, n.opts.AgentTimeout)
	defer cancel()

	res, err := member.Generate(callCtx, subTaskMessages(goal, st, deps))
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = errors.New("agent returned an empty answer")
	}

	out := SubTaskResult{SubTask: st, Duration: time.Since(start)}

	if err != nil {
		err = core.AsTimeout(ctx, err, "agent "+st.Agent, n.opts.AgentTimeout)
		out.Err = err
		out.Text = UnavailableMarker(err)
		logger.Warn("network.subtask.failed", "network", n.name, "run", runID, "subtask", st.ID, "agent", st.Agent, "error", err.Error())
		n.opts.Metrics.ObserveSubTask(n.name, st.Agent, metrics.OutcomeError)
		return out
	}

	out.Text = res.Text
	out.Available = true
	logger.Info("network.subtask.complete", "network", n.name, "run", runID, "subtask", st.ID, "agent", st.Agent, "duration_ms", out.Duration.Milliseconds())
	n.opts.Metrics.ObserveSubTask(n.name, st.Agent, metrics.OutcomeSuccess)

	return out
}

// subTaskMessages builds the private message list of one branch.
func subTaskMessages(goal string, st SubTask, deps []SubTaskResult) []core.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall goal: %s\n\nYour sub-task: %s\n", goal, st.Description)

	if len(deps) > 0 {
		b.WriteString("\nResults from other agents you can build on:\n")
		for _, d := range deps {
			fmt.Fprintf(&b, "\n### %s (%s)\n%s\n", d.SubTask.Agent, d.SubTask.ID, d.Text)
		}
	}

	return []core.Message{core.UserMessage(b.String())}
}

// UnavailableMarker renders a failed contribution.
func UnavailableMarker(err error) string {
	if err == nil {
		return "[unavailable]"
	}
	return "[unavailable: " + err.Error() + "]"
}
