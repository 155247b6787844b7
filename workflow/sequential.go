package workflow

import (
	"context"
	"fmt"
)

// runSequential executes the definition's steps in order. Each step receives
// its task together with the previous step's output; the first failure
// aborts the run and later steps stay PENDING. The final step's output is
// the execution output.
func (o *Orchestrator) runSequential(ctx context.Context, def Definition, exec *Execution, task string) (string, error) {
	// All assignments exist up front so a fail-fast abort leaves the
	// untouched tail visibly PENDING.
	assignments := make([]*Assignment, len(def.Steps))
	for i, step := range def.Steps {
		assignments[i] = exec.AddAssignment(step.AgentName, step.Task)
	}

	previous := task

	for i := range def.Steps {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("step %d: %w", i, err)
		}

		a := assignments[i]
		a.Task = composeStepTask(def.Steps[i].Task, previous)

		output, err := o.runAssignment(ctx, exec, a)
		if err != nil {
			return "", fmt.Errorf("step %d (%s): %w", i, a.AgentName, err)
		}

		previous = output
	}

	return previous, nil
}

// composeStepTask threads the prior output into the next step's prompt.
func composeStepTask(task, previous string) string {
	if task == "" {
		return previous
	}

	if previous == "" {
		return task
	}

	return fmt.Sprintf("%s\n\nInput from the previous step:\n%s", task, previous)
}
