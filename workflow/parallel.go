package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// branchOutcome pairs a branch index with its result so the synthesizer
// input preserves definition order regardless of completion order.
type branchOutcome struct {
	branch Branch
	output string
	err    error
}

// runParallel fans the task out over all branches, waits at a barrier, then
// hands every outcome, failures included, to the synthesizer. Branch
// failures are best effort; only a synthesizer failure or an expired
// deadline fails the execution.
func (o *Orchestrator) runParallel(ctx context.Context, def Definition, exec *Execution, task string) (string, error) {
	assignments := make([]*Assignment, len(def.Branches))
	for i, branch := range def.Branches {
		assignments[i] = exec.AddAssignment(branch.AgentName, composeBranchTask(task, branch.Specialty))
	}

	outcomes := make([]branchOutcome, len(def.Branches))

	var wg sync.WaitGroup

	for i := range def.Branches {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			output, err := o.runAssignment(ctx, exec, assignments[idx])
			outcomes[idx] = branchOutcome{branch: def.Branches[idx], output: output, err: err}
		}(i)
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// The deadline fired before the barrier opened. Terminal
		// assignment transitions reject further updates, so anything a
		// straggler produces after this point is discarded.
		for _, a := range assignments {
			// Already-terminal assignments reject the transition; that
			// is fine, their outcome stands.
			_ = exec.Fail(a, ctx.Err())
		}

		return "", fmt.Errorf("parallel fan-out: %w", ctx.Err())
	}

	synthesis := exec.AddAssignment(def.Synthesizer, composeSynthesisTask(task, outcomes))

	output, err := o.runAssignment(ctx, exec, synthesis)
	if err != nil {
		return "", fmt.Errorf("synthesizer (%s): %w", def.Synthesizer, err)
	}

	return output, nil
}

// composeBranchTask tags the shared task with the branch specialty.
func composeBranchTask(task, specialty string) string {
	if specialty == "" {
		return task
	}

	return fmt.Sprintf("[%s] %s", specialty, task)
}

// composeSynthesisTask builds the synthesizer prompt from every branch
// outcome. Failed branches appear as explicit failure markers so the
// synthesizer can account for the gaps instead of silently losing them.
func composeSynthesisTask(task string, outcomes []branchOutcome) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Synthesize the following results for the task: %s\n", task)

	for _, oc := range outcomes {
		label := oc.branch.Specialty
		if label == "" {
			label = oc.branch.AgentName
		}

		if oc.err != nil {
			fmt.Fprintf(&sb, "\n%s: [FAILED: %v]\n", label, oc.err)
			continue
		}

		fmt.Fprintf(&sb, "\n%s:\n%s\n", label, oc.output)
	}

	return sb.String()
}
