// Package agentnet wires agents, agent networks and workflows into one
// explicitly constructed Registry. Applications typically:
//  1. Build agents, networks and workflows from their packages
//  2. Register them with a Registry created once at startup
//  3. Pass the Registry to whatever serves requests and look components up
//     by name
//
// A Registry is safe for concurrent use. Registered components are immutable,
// so lookups can be shared freely across goroutines.
package agentnet

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hupe1980/agentnet/agent"
	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/network"
	"github.com/hupe1980/agentnet/workflow"
)

// Options configures a Registry.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Registry holds named agents, networks and committed workflows.
type Registry struct {
	opts Options

	mu        sync.RWMutex
	agents    map[string]*agent.Agent
	networks  map[string]*network.Network
	workflows map[string]*workflow.Workflow
}

// New creates an empty Registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Registry{
		opts:      opts,
		agents:    map[string]*agent.Agent{},
		networks:  map[string]*network.Network{},
		workflows: map[string]*workflow.Workflow{},
	}
}

// RegisterAgent adds a under its name.
func (r *Registry) RegisterAgent(a *agent.Agent) error {
	if a == nil {
		return core.NewConfigurationError("registry", "agent is nil")
	}
	return register(r, r.agents, "agent", a.Name(), a)
}

// RegisterNetwork adds n under its name.
func (r *Registry) RegisterNetwork(n *network.Network) error {
	if n == nil {
		return core.NewConfigurationError("registry", "network is nil")
	}
	return register(r, r.networks, "network", n.Name(), n)
}

// RegisterWorkflow commits w if needed and adds it under its name.
func (r *Registry) RegisterWorkflow(w *workflow.Workflow) error {
	if w == nil {
		return core.NewConfigurationError("registry", "workflow is nil")
	}
	if err := w.Commit(); err != nil {
		return err
	}
	return register(r, r.workflows, "workflow", w.Name(), w)
}

func register[T any](r *Registry, m map[string]T, kind, name string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := m[name]; dup {
		return core.NewConfigurationError("registry", "%s %q is already registered", kind, name)
	}
	m[name] = v

	r.opts.Logger.Debug("registry.register", "kind", kind, "name", name)

	return nil
}

func lookup[T any](r *Registry, m map[string]T, kind, name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := m[name]
	if !ok {
		var zero T
		return zero, core.NewConfigurationError("registry", "unknown %s %q; registered: %v", kind, name, sortedKeys(m))
	}
	return v, nil
}

func sortedKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

// Agent returns the agent registered as name.
func (r *Registry) Agent(name string) (*agent.Agent, error) {
	return lookup(r, r.agents, "agent", name)
}

// Network returns the network registered as name.
func (r *Registry) Network(name string) (*network.Network, error) {
	return lookup(r, r.networks, "network", name)
}

// Workflow returns the workflow registered as name.
func (r *Registry) Workflow(name string) (*workflow.Workflow, error) {
	return lookup(r, r.workflows, "workflow", name)
}

// Names lists registered components by kind, sorted.
func (r *Registry) Names() (agents, networks, workflows []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.agents), sortedKeys(r.networks), sortedKeys(r.workflows)
}

// Generate runs the named network on goal.
func (r *Registry) Generate(ctx context.Context, networkName, goal string) (*network.Result, error) {
	n, err := r.Network(networkName)
	if err != nil {
		return nil, err
	}
	return n.Generate(ctx, goal)
}

// Run executes the named workflow with trigger.
func (r *Registry) Run(ctx context.Context, workflowName string, trigger any, optFns ...func(o *workflow.RunOptions)) (*workflow.RunResult, error) {
	w, err := r.Workflow(workflowName)
	if err != nil {
		return nil, err
	}

	res, err := w.Run(ctx, trigger, optFns...)
	if err != nil {
		return res, fmt.Errorf("run %s: %w", workflowName, err)
	}
	return res, nil
}
