package network

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentnet/agent"
	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/metrics"
	"github.com/hupe1980/agentnet/model"
)

// Spec declares a network.
type Spec struct {
	Name         string
	Instructions string
	Model        model.Model // Coordinator model; optional when Router and Synthesizer are set
	Members      []*agent.Agent
}

// Options configures a Network.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	// Router decomposes goals. Defaults to a ModelRouter over the coordinator
	// model, or a KeywordRouter when no model is configured.
	Router RoutingStrategy
	// Synthesizer merges contributions. Defaults to a ModelSynthesizer over
	// the coordinator model, or a SectionSynthesizer.
	Synthesizer Synthesizer
	// MaxConcurrency bounds concurrently running sub-tasks; zero or less
	// means unbounded.
	MaxConcurrency int
	// AgentTimeout bounds one member invocation; zero disables it.
	AgentTimeout time.Duration
}

// SubTaskResult is the collected outcome of one sub-task.
type SubTaskResult struct {
	SubTask   SubTask
	Text      string // Answer, or the unavailable marker on failure
	Err       error
	Available bool
	Duration  time.Duration
}

// Result is the outcome of Generate.
type Result struct {
	RunID    string
	Text     string
	SubTasks []SubTaskResult
}

// Network coordinates member agents. It is immutable after New and safe for
// concurrent Generate calls.
type Network struct {
	name         string
	instructions string
	members      []*agent.Agent
	byName       map[string]*agent.Agent
	roster       []RosterEntry
	opts         Options
}

// New validates spec and creates a Network.
func New(spec Spec, optFns ...func(o *Options)) (*Network, error) {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		MaxConcurrency: 4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	component := "network " + spec.Name
	if strings.TrimSpace(spec.Name) == "" {
		return nil, core.NewConfigurationError("network", "name must not be empty")
	}
	if len(spec.Members) == 0 {
		return nil, core.NewConfigurationError(component, "at least one member agent is required")
	}

	n := &Network{
		name:         spec.Name,
		instructions: spec.Instructions,
		members:      make([]*agent.Agent, 0, len(spec.Members)),
		byName:       make(map[string]*agent.Agent, len(spec.Members)),
		opts:         opts,
	}

	for i, m := range spec.Members {
		if m == nil {
			return nil, core.NewConfigurationError(component, "member %d is nil", i)
		}
		if _, dup := n.byName[m.Name()]; dup {
			return nil, core.NewConfigurationError(component, "duplicate member name %q", m.Name())
		}
		n.byName[m.Name()] = m
		n.members = append(n.members, m)
		n.roster = append(n.roster, RosterEntry{
			Name:        m.Name(),
			Description: m.Description(),
			Tools:       m.ToolNames(),
			Index:       i,
		})
	}

	if n.opts.Router == nil {
		if spec.Model != nil {
			n.opts.Router = &ModelRouter{Model: spec.Model, Instructions: spec.Instructions, Logger: opts.Logger}
		} else {
			n.opts.Router = KeywordRouter{}
		}
	}

	if n.opts.Synthesizer == nil {
		if spec.Model != nil {
			n.opts.Synthesizer = &ModelSynthesizer{Model: spec.Model, Instructions: spec.Instructions}
		} else {
			n.opts.Synthesizer = SectionSynthesizer{}
		}
	}

	return n, nil
}

// Name returns the network name.
func (n *Network) Name() string { return n.name }

// Instructions returns the coordinator directive.
func (n *Network) Instructions() string { return n.instructions }

// Members returns the member agents in registration order.
func (n *Network) Members() []*agent.Agent {
	out := make([]*agent.Agent, len(n.members))
	copy(out, n.members)
	return out
}

// Roster returns the routing view of the members.
func (n *Network) Roster() []RosterEntry {
	out := make([]RosterEntry, len(n.roster))
	copy(out, n.roster)
	return out
}

// Generate answers goal using the member agents.
func (n *Network) Generate(ctx context.Context, goal string) (*Result, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, fmt.Errorf("network %s: goal must not be empty", n.name)
	}

	logger := n.opts.Logger
	runID := core.NewID()
	start := time.Now()

	logger.Info("network.generate.start", "network", n.name, "run", runID)

	plan, err := n.decompose(ctx, goal)
	if err != nil {
		logger.Error("network.decompose.error", "network", n.name, "run", runID, "error", err.Error())
		return nil, err
	}

	logger.Debug("network.decompose.complete", "network", n.name, "run", runID, "subtasks", len(plan))

	results, err := n.dispatch(ctx, runID, goal, plan)
	if err != nil {
		return nil, err
	}

	var failures []core.SubTaskFailure
	for _, r := range results {
		if !r.Available {
			failures = append(failures, core.SubTaskFailure{SubTask: r.SubTask.ID, Agent: r.SubTask.Agent, Err: r.Err})
		}
	}

	if len(failures) == len(results) {
		err := &core.NetworkExhaustedError{Network: n.name, Failures: failures}
		logger.Error("network.generate.exhausted", "network", n.name, "run", runID, "error", err.Error())
		return nil, err
	}

	text, err := n.synthesize(ctx, goal, results)
	if err != nil {
		return nil, err
	}

	logger.Info("network.generate.complete",
		"network", n.name,
		"run", runID,
		"subtasks", len(results),
		"unavailable", len(failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{RunID: runID, Text: text, SubTasks: results}, nil
}

func (n *Network) synthesize(ctx context.Context, goal string, results []SubTaskResult) (string, error) {
	text, err := n.opts.Synthesizer.Synthesize(ctx, goal, results)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		n.opts.Logger.Warn("network.synthesize.fallback", "network", n.name, "error", err.Error())
		text, err = SectionSynthesizer{}.Synthesize(ctx, goal, results)
		if err != nil {
			return "", err
		}
	}

	return text + UnavailableNote(results), nil
}
