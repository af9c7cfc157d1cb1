package network

import (
	"fmt"
	"slices"

	"github.com/hupe1980/agentnet/core"
)

// validatePlan checks a decomposition against the roster: ids are filled in
// when missing and must be unique, every agent must be a member, and
// dependencies must name other sub-tasks of the plan without forming a cycle.
func validatePlan(network string, plan []SubTask, roster []RosterEntry) ([]SubTask, error) {
	component := "network " + network

	members := make(map[string]struct{}, len(roster))
	for _, e := range roster {
		members[e.Name] = struct{}{}
	}

	out := make([]SubTask, len(plan))
	ids := make(map[string]int, len(plan))

	for i, st := range plan {
		if st.ID == "" {
			st.ID = fmt.Sprintf("task-%d", i+1)
		}
		if _, dup := ids[st.ID]; dup {
			return nil, core.NewConfigurationError(component, "duplicate sub-task id %q", st.ID)
		}
		if _, ok := members[st.Agent]; !ok {
			return nil, core.NewConfigurationError(component, "sub-task %s routed to unknown agent %q", st.ID, st.Agent)
		}
		st.DependsOn = slices.Clone(st.DependsOn)
		ids[st.ID] = i
		out[i] = st
	}

	for _, st := range out {
		for _, dep := range st.DependsOn {
			if dep == st.ID {
				return nil, core.NewConfigurationError(component, "sub-task %s depends on itself", st.ID)
			}
			if _, ok := ids[dep]; !ok {
				return nil, core.NewConfigurationError(component, "sub-task %s depends on unknown sub-task %q", st.ID, dep)
			}
		}
	}

	if _, err := waves(out); err != nil {
		return nil, core.NewConfigurationError(component, "%s", err.Error())
	}

	return out, nil
}

// waves groups sub-tasks into dependency levels: every sub-task appears in
// a later wave than all of its dependencies. Order within a wave follows the
// plan.
func waves(plan []SubTask) ([][]SubTask, error) {
	done := make(map[string]bool, len(plan))

	var out [][]SubTask
	for remaining := len(plan); remaining > 0; {
		var wave []SubTask
		for _, st := range plan {
			if done[st.ID] {
				continue
			}
			ready := true
			for _, dep := range st.DependsOn {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, st)
			}
		}

		if len(wave) == 0 {
			return nil, fmt.Errorf("sub-task dependencies form a cycle")
		}

		for _, st := range wave {
			done[st.ID] = true
		}
		remaining -= len(wave)
		out = append(out, wave)
	}

	return out, nil
}
