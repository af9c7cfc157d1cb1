package network

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentnet/core"
	"github.com/hupe1980/agentnet/model"
)

const synthesisDirective = `Combine the contributions below into one coherent, complete answer to the goal.
Do not invent facts that are not in the contributions.
If a contribution is marked unavailable, say which part of the answer is missing.`

// Synthesizer merges collected sub-task results into the final answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, goal string, results []SubTaskResult) (string, error)
}

// ModelSynthesizer asks the coordinator model to merge contributions.
type ModelSynthesizer struct {
	Model        model.Model
	Instructions string
}

// Synthesize implements Synthesizer.
func (s *ModelSynthesizer) Synthesize(ctx context.Context, goal string, results []SubTaskResult) (string, error) {
	system := synthesisDirective
	if strings.TrimSpace(s.Instructions) != "" {
		system = strings.TrimSpace(s.Instructions) + "\n\n" + synthesisDirective
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal:\n%s\n\nContributions:\n", goal)
	for _, r := range results {
		fmt.Fprintf(&b, "\n### %s (%s): %s\n%s\n", r.SubTask.Agent, r.SubTask.ID, r.SubTask.Description, r.Text)
	}

	resps, errs := s.Model.Generate(ctx, model.Request{
		System:   system,
		Messages: []core.Message{core.UserMessage(b.String())},
	})

	final, err := model.Drain(ctx, resps, errs, nil)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	if strings.TrimSpace(final.Text) == "" {
		return "", fmt.Errorf("synthesize: empty answer")
	}

	return final.Text, nil
}

// SectionSynthesizer concatenates available contributions under one
// heading per sub-task, in plan order.
type SectionSynthesizer struct{}

// Synthesize implements Synthesizer.
func (SectionSynthesizer) Synthesize(_ context.Context, _ string, results []SubTaskResult) (string, error) {
	sections := make([]string, 0, len(results))
	for _, r := range results {
		if !r.Available {
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", r.SubTask.Agent, strings.TrimSpace(r.Text)))
	}
	return strings.Join(sections, "\n\n"), nil
}

// UnavailableNote lists failed sub-tasks so the answer never silently omits
// them. It is empty when every sub-task succeeded.
func UnavailableNote(results []SubTaskResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Available {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\n\n---\nUnavailable contributions:\n")
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.SubTask.ID, r.SubTask.Agent, r.Text)
	}
	return b.String()
}
