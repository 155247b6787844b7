package workflow

import (
	"errors"
	"fmt"
)

// Strategy selects how an execution coordinates its agents. It is fixed for
// the lifetime of an execution.
type Strategy string

const (
	// StrategySequential runs ordered steps with output threading.
	StrategySequential Strategy = "SEQUENTIAL"
	// StrategyParallel fans out over branches then synthesizes.
	StrategyParallel Strategy = "PARALLEL"
	// StrategyHierarchical plans with a supervisor and routes to workers.
	StrategyHierarchical Strategy = "HIERARCHICAL"
)

// Step is one ordered entry of a sequential workflow.
type Step struct {
	AgentName string `json:"agent_name"`
	Task      string `json:"task"`
}

// Branch is one concurrent entry of a parallel workflow. Each branch
// receives the root task augmented by its specialty tag.
type Branch struct {
	AgentName string `json:"agent_name"`
	Specialty string `json:"specialty"`
}

// Definition describes a workflow. Created once, immutable thereafter; a
// definition can be executed any number of times.
type Definition struct {
	Name     string   `json:"name"`
	Strategy Strategy `json:"strategy"`

	// Sequential configuration.
	Steps []Step `json:"steps,omitempty"`

	// Parallel configuration.
	Branches    []Branch `json:"branches,omitempty"`
	Synthesizer string   `json:"synthesizer,omitempty"`

	// Hierarchical configuration. Routes maps a subtask type tag to the
	// worker agent responsible for it.
	Supervisor string            `json:"supervisor,omitempty"`
	Routes     map[string]string `json:"routes,omitempty"`
}

// Validate checks the definition is complete for its strategy.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("workflow definition requires a name")
	}

	switch d.Strategy {
	case StrategySequential:
		if len(d.Steps) == 0 {
			return fmt.Errorf("sequential workflow %s requires at least one step", d.Name)
		}
		for i, step := range d.Steps {
			if step.AgentName == "" {
				return fmt.Errorf("sequential workflow %s: step %d has no agent", d.Name, i)
			}
		}
	case StrategyParallel:
		if len(d.Branches) == 0 {
			return fmt.Errorf("parallel workflow %s requires at least one branch", d.Name)
		}
		if d.Synthesizer == "" {
			return fmt.Errorf("parallel workflow %s requires a synthesizer agent", d.Name)
		}
		for i, branch := range d.Branches {
			if branch.AgentName == "" {
				return fmt.Errorf("parallel workflow %s: branch %d has no agent", d.Name, i)
			}
		}
	case StrategyHierarchical:
		if d.Supervisor == "" {
			return fmt.Errorf("hierarchical workflow %s requires a supervisor agent", d.Name)
		}
		if len(d.Routes) == 0 {
			return fmt.Errorf("hierarchical workflow %s requires a routing table", d.Name)
		}
	default:
		return fmt.Errorf("workflow %s has unknown strategy %q", d.Name, d.Strategy)
	}

	return nil
}
