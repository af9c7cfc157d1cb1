package network

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/logging"
	"github.com/hupe1980/agentnet/model"
)

const routingDirective = `Break the goal into the smallest set of sub-tasks needed to answer it and assign each to exactly one available agent.
Respond with JSON only, no prose, in this shape:
{"subtasks":[{"id":"task-1","description":"...","agent":"<exact agent name>","dependsOn":[]}]}
List a sub-task id in dependsOn only when that sub-task's result is required as input.
When several agents fit equally well, choose the one listed first.`

// ModelRouter asks the coordinator model for a JSON plan. Agent names the
// model invents are re-resolved by keyword scoring over the sub-task
// description. A model failure or an unparsable reply falls back to
// Fallback (KeywordRouter when nil).
type ModelRouter struct {
	Model        model.Model
	Instructions string
	Fallback     RoutingStrategy
	Logger       logging.Logger
}

type planReply struct {
	Subtasks []SubTask `json:"subtasks"`
}

// Decompose implements RoutingStrategy.
func (r *ModelRouter) Decompose(ctx context.Context, goal string, roster []RosterEntry) ([]SubTask, error) {
	logger := logging.OrNoOp(r.Logger)

	fallback := r.Fallback
	if fallback == nil {
		fallback = KeywordRouter{}
	}

	system := routingDirective
	if strings.TrimSpace(r.Instructions) != "" {
		system = strings.TrimSpace(r.Instructions) + "\n\n" + routingDirective
	}

	resps, errs := r.Model.Generate(ctx, model.Request{
		System:   system,
		Messages: []core.Message{core.UserMessage(routingPrompt(goal, roster))},
	})

	final, err := model.Drain(ctx, resps, errs, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("network.route.fallback", "reason", "model error", "error", err.Error())
		return fallback.Decompose(ctx, goal, roster)
	}

	plan, err := parsePlan(final.Text)
	if err != nil {
		logger.Warn("network.route.fallback", "reason", "unparsable plan", "error", err.Error())
		return fallback.Decompose(ctx, goal, roster)
	}

	for i := range plan {
		if name, ok := resolveAgent(plan[i].Agent, roster); ok {
			plan[i].Agent = name
			continue
		}
		text := plan[i].Description
		if strings.TrimSpace(text) == "" {
			text = goal
		}
		entry, _ := BestMatch(text, roster)
		logger.Warn("network.route.reresolved", "requested", plan[i].Agent, "resolved", entry.Name)
		plan[i].Agent = entry.Name
	}

	return plan, nil
}

func routingPrompt(goal string, roster []RosterEntry) string {
	var b strings.Builder

	b.WriteString("Goal:\n")
	b.WriteString(goal)
	b.WriteString("\n\nAvailable agents:\n")

	for i, e := range roster {
		fmt.Fprintf(&b, "%d. %s", i+1, e.Name)
		if e.Description != "" {
			fmt.Fprintf(&b, " - %s", e.Description)
		}
		if len(e.Tools) > 0 {
			fmt.Fprintf(&b, " (tools: %s)", strings.Join(e.Tools, ", "))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// parsePlan extracts the JSON object from a reply that may be wrapped in
// prose or a fenced code block.
func parsePlan(text string) ([]SubTask, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var reply planReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	return reply.Subtasks, nil
}

func resolveAgent(name string, roster []RosterEntry) (string, bool) {
	name = strings.TrimSpace(name)
	for _, e := range roster {
		if e.Name == name {
			return e.Name, true
		}
	}
	for _, e := range roster {
		if strings.EqualFold(e.Name, name) {
			return e.Name, true
		}
	}
	return "", false
}
