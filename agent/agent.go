package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/model"
	"github.com/hupe1980/agentnet/tool"
)

// turnSeparator joins text produced by consecutive model turns.
const turnSeparator = "\n\n"

// Spec declares an agent.
type Spec struct {
	Name         string
	Instructions string
	Model        model.Model
	Tools        map[string]tool.Tool
}

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	Logger logging.Logger
	// MaxTurns caps model calls per invocation; zero means unlimited.
	MaxTurns int
	// ModelTimeout bounds a single model call; zero disables it.
	ModelTimeout time.Duration
}

// Result is the outcome of a buffered invocation.
type Result struct {
	Agent    string
	Text     string
	Messages []core.Message // Conversation including tool turns and the final answer
	Turns    int
	Usage    model.TokenUsage
}

// Agent is a named persona bound to a model and a fixed tool set.
// It is immutable after New and safe for concurrent use.
type Agent struct {
	name         string
	instructions string
	llm          model.Model
	tools        map[string]tool.Tool
	toolNames    []string
	toolDefs     []model.ToolDefinition
	opts         Options
}

// New validates spec and creates an Agent. The tool map is copied so later
// changes to the caller's map do not affect the agent.
func New(spec Spec, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Logger:   logging.NoOpLogger{},
		MaxTurns: 8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	if strings.TrimSpace(spec.Name) == "" {
		return nil, core.NewConfigurationError("agent", "name must not be empty")
	}
	if spec.Model == nil {
		return nil, core.NewConfigurationError("agent "+spec.Name, "model is required")
	}

	a := &Agent{
		name:         spec.Name,
		instructions: spec.Instructions,
		llm:          spec.Model,
		tools:        make(map[string]tool.Tool, len(spec.Tools)),
		opts:         opts,
	}

	for key, t := range spec.Tools {
		if t == nil {
			return nil, core.NewConfigurationError("agent "+spec.Name, "tool %q is nil", key)
		}
		if key != t.Name() {
			return nil, core.NewConfigurationError("agent "+spec.Name, "tool bound as %q reports name %q", key, t.Name())
		}
		a.tools[key] = t
		a.toolNames = append(a.toolNames, key)
	}

	slices.Sort(a.toolNames)
	for _, name := range a.toolNames {
		a.toolDefs = append(a.toolDefs, tool.Definition(a.tools[name]))
	}

	return a, nil
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the behavioral directive.
func (a *Agent) Instructions() string { return a.instructions }

// Description returns the first non-empty line of the instructions.
func (a *Agent) Description() string {
	for line := range strings.SplitSeq(a.instructions, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// ToolNames returns the bound tool names in sorted order.
func (a *Agent) ToolNames() []string { return slices.Clone(a.toolNames) }

// Tool returns the named tool.
func (a *Agent) Tool(name string) (tool.Tool, bool) {
	t, ok := a.tools[name]
	return t, ok
}

// Model returns the bound model.
func (a *Agent) Model() model.Model { return a.llm }

// Generate runs the agent to completion and returns the full answer.
func (a *Agent) Generate(ctx context.Context, msgs []core.Message) (*Result, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("agent %s: no messages", a.name)
	}
	return a.run(ctx, msgs, nil)
}

// Stream runs the agent lazily. Nothing happens until the returned stream
// is consumed; the collected text equals what Generate would return for the
// same model behavior.
func (a *Agent) Stream(ctx context.Context, msgs []core.Message) (*model.TextStream, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("agent %s: no messages", a.name)
	}

	msgs = core.CloneMessages(msgs)

	return model.NewTextStream(func(streamCtx context.Context, emit func(string) bool) error {
		_, err := a.run(streamCtx, msgs, emit)
		if errors.Is(err, model.ErrStreamStopped) {
			return nil
		}
		return err
	}), nil
}

// run drives the tool-calling loop. A non-nil emit switches model calls to
// streaming mode and receives every text delta.
func (a *Agent) run(ctx context.Context, msgs []core.Message, emit func(string) bool) (*Result, error) {
	logger := a.opts.Logger
	start := time.Now()

	logger.Debug("agent.generate.start", "agent", a.name, "messages", len(msgs), "stream", emit != nil)

	conv := core.CloneMessages(msgs)
	limiter := core.NewModelLimiter(a.opts.MaxTurns)
	res := &Result{Agent: a.name}

	var text strings.Builder

	for {
		if err := limiter.Acquire(); err != nil {
			logger.Error("agent.generate.error", "agent", a.name, "error", err.Error())
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}

		resp, err := a.callModel(ctx, conv, text.Len() > 0, emit)
		if err != nil {
			logger.Error("agent.generate.error", "agent", a.name, "error", err.Error())
			return nil, err
		}

		res.Turns++
		if resp.Usage != nil {
			res.Usage.PromptTokens += resp.Usage.PromptTokens
			res.Usage.CompletionTokens += resp.Usage.CompletionTokens
			res.Usage.TotalTokens += resp.Usage.TotalTokens
		}

		if resp.Text != "" {
			if text.Len() > 0 {
				text.WriteString(turnSeparator)
			}
			text.WriteString(resp.Text)
		}

		conv = append(conv, core.Message{Role: core.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})

		if len(resp.ToolCalls) == 0 {
			break
		}

		for _, call := range resp.ToolCalls {
			content, err := a.callTool(ctx, call)
			if err != nil {
				logger.Error("agent.generate.error", "agent", a.name, "tool", call.Name, "error", err.Error())
				return nil, err
			}
			conv = append(conv, core.ToolResultMessage(call.ID, content, false))
		}
	}

	res.Text = text.String()
	res.Messages = conv

	logger.Info("agent.generate.complete",
		"agent", a.name,
		"turns", res.Turns,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return res, nil
}

// callModel performs one model turn. When streaming, the separator is
// emitted before the first delta of a turn that follows earlier text.
func (a *Agent) callModel(ctx context.Context, conv []core.Message, hasText bool, emit func(string) bool) (*model.Response, error) {
	callCtx, cancel := core.CallContext(ctx, a.opts.ModelTimeout)
	defer cancel()

	req := model.Request{
		System:   a.instructions,
		Messages: conv,
		Tools:    a.toolDefs,
		Stream:   emit != nil,
	}

	a.opts.Logger.Debug("agent.model.call", "agent", a.name, "model", a.llm.Info().Name, "tools", len(a.toolDefs))

	var onPartial func(model.Response) bool
	if emit != nil {
		first := true
		onPartial = func(r model.Response) bool {
			if r.Text == "" {
				return true
			}
			if first && hasText && !emit(turnSeparator) {
				return false
			}
			first = false
			return emit(r.Text)
		}
	}

	resps, errs := a.llm.Generate(callCtx, req)
	resp, err := model.Drain(callCtx, resps, errs, onPartial)
	if err != nil {
		err = core.AsTimeout(ctx, err, "agent "+a.name+" model call", a.opts.ModelTimeout)
		if core.IsTyped(err) || errors.Is(err, model.ErrStreamStopped) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("agent %s: model call: %w", a.name, err)
	}

	return resp, nil
}

// callTool resolves and executes one requested tool call and renders its
// output as tool message content.
func (a *Agent) callTool(ctx context.Context, call core.ToolCall) (content string, err error) {
	t, ok := a.tools[call.Name]
	if !ok {
		return "", core.NewConfigurationError("agent "+a.name, "model requested unknown tool %q (bound: %s)", call.Name, strings.Join(a.toolNames, ", "))
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", &core.SchemaValidationError{
				Subject: "tool " + call.Name + " input",
				Fields:  []core.FieldError{{Message: "arguments are not a JSON object: " + err.Error(), Value: call.Arguments}},
			}
		}
	}

	a.opts.Logger.Debug("agent.tool.call", "agent", a.name, "tool", call.Name, "call_id", call.ID)

	defer func() {
		if r := recover(); r != nil {
			a.opts.Logger.Error("agent.tool.panic", "agent", a.name, "tool", call.Name, "recover", r)
			err = &core.ToolExecutionError{Tool: call.Name, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	out, err := t.Call(ctx, args)
	if err != nil {
		return "", err
	}

	return render(out)
}

func render(v any) (string, error) {
	switch out := v.(type) {
	case nil:
		return "", nil
	case string:
		return out, nil
	default:
		b, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("render tool output: %w", err)
		}
		return string(b), nil
	}
}
