package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// runHierarchical asks the supervisor to plan the task as typed subtasks,
// routes each subtask to its worker in plan order, then returns the task to
// the supervisor for finalization. A failed worker is recorded on its
// assignment and later workers still run; only a failed supervisor call, an
// unparseable plan or a subtask type missing from the routing table fail
// the execution.
func (o *Orchestrator) runHierarchical(ctx context.Context, def Definition, exec *Execution, task string) (string, error) {
	planning := exec.AddAssignment(def.Supervisor, composePlanTask(task, def.Routes))

	planOutput, err := o.runAssignment(ctx, exec, planning)
	if err != nil {
		return "", fmt.Errorf("supervisor planning (%s): %w", def.Supervisor, err)
	}

	subtasks, err := parsePlan(planOutput)
	if err != nil {
		return "", fmt.Errorf("supervisor plan (%s): %w", def.Supervisor, err)
	}

	workerOutputs := make([]string, 0, len(subtasks))

	for i, st := range subtasks {
		worker, ok := def.Routes[st.Type]
		if !ok {
			return "", fmt.Errorf("subtask %d: no route for type %q", i, st.Type)
		}

		a := exec.AddAssignment(worker, st.Description)

		output, err := o.runAssignment(ctx, exec, a)
		if err != nil {
			workerOutputs = append(workerOutputs, fmt.Sprintf("%s: [FAILED: %v]", st.Type, err))
			continue
		}

		workerOutputs = append(workerOutputs, fmt.Sprintf("%s:\n%s", st.Type, output))
	}

	finalization := exec.AddAssignment(def.Supervisor, composeFinalTask(task, workerOutputs))

	output, err := o.runAssignment(ctx, exec, finalization)
	if err != nil {
		return "", fmt.Errorf("supervisor finalization (%s): %w", def.Supervisor, err)
	}

	return output, nil
}

// composePlanTask builds the supervisor planning prompt. The routing table
// keys constrain the subtask types the supervisor may emit.
func composePlanTask(task string, routes map[string]string) string {
	types := make([]string, 0, len(routes))
	for t := range routes {
		types = append(types, t)
	}

	sort.Strings(types)

	return fmt.Sprintf(
		"Break the following task into subtasks. Respond with a JSON array of "+
			"objects with \"type\" and \"description\" fields. Allowed types: %s.\n\nTask: %s",
		strings.Join(types, ", "), task,
	)
}

// composeFinalTask builds the supervisor finalization prompt from the worker
// outputs in plan order.
func composeFinalTask(task string, outputs []string) string {
	return fmt.Sprintf(
		"Combine the following subtask results into a final answer for the task: %s\n\n%s",
		task, strings.Join(outputs, "\n\n"),
	)
}
