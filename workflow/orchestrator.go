package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/agentloom/agent"
	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
)

// Runner is the slice of agent behavior the orchestrator needs. *agent.Agent
// satisfies it.
type Runner interface {
	Name() string
	ProcessQuery(ctx context.Context, conversationID, queryText string, useRetrieval bool) (*agent.Result, error)
}

// Compile-time check that the agent type satisfies Runner.
var _ Runner = (*agent.Agent)(nil)

// Result is the outcome of one workflow execution.
type Result struct {
	ExecutionID string
	Workflow    string
	Status      ExecutionStatus
	Output      string
	Elapsed     time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	// Store persists executions. Defaults to an in-memory store.
	Store Store

	// Actions receives one TASK_STEP record per assignment. Optional.
	Actions core.ActionLog

	// Logger used for orchestration events. Defaults to slog.
	Logger logging.Logger

	// Timeout bounds one execution end to end. Zero means no deadline.
	Timeout time.Duration

	// UseRetrieval is forwarded to every agent invocation.
	UseRetrieval bool
}

// Orchestrator coordinates registered agents according to a workflow
// definition. Agents are registered once at startup; executions may then run
// concurrently.
type Orchestrator struct {
	agents map[string]Runner
	opts   Options
}

// New creates an Orchestrator.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Store:  NewInMemoryStore(),
		Logger: logging.NewDefaultSlogLogger(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		agents: make(map[string]Runner),
		opts:   opts,
	}
}

// RegisterAgent makes an agent addressable by workflow definitions. A later
// registration under the same name replaces the earlier one.
func (o *Orchestrator) RegisterAgent(r Runner) {
	o.agents[r.Name()] = r
}

// Store returns the execution store.
func (o *Orchestrator) Store() Store { return o.opts.Store }

// Execute runs the definition against the task and returns the execution
// outcome. Strategy failures are reported in both the stored execution and
// the returned error.
func (o *Orchestrator) Execute(ctx context.Context, def Definition, task string) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if err := o.checkAgents(def); err != nil {
		return nil, err
	}

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	exec := NewExecution(def, task)

	if err := o.opts.Store.Save(ctx, exec); err != nil {
		return nil, fmt.Errorf("save execution: %w", err)
	}

	o.opts.Logger.Info("workflow execution started",
		"execution_id", exec.ID,
		"workflow", def.Name,
		"strategy", def.Strategy,
	)

	var (
		output string
		err    error
	)

	switch def.Strategy {
	case StrategySequential:
		output, err = o.runSequential(ctx, def, exec, task)
	case StrategyParallel:
		output, err = o.runParallel(ctx, def, exec, task)
	case StrategyHierarchical:
		output, err = o.runHierarchical(ctx, def, exec, task)
	}

	if err != nil {
		exec.Finish(ExecutionFailed, output, err)
	} else {
		exec.Finish(ExecutionCompleted, output, nil)
	}

	if saveErr := o.opts.Store.Save(ctx, exec); saveErr != nil {
		o.opts.Logger.Error("failed to save execution", "execution_id", exec.ID, "error", saveErr)
	}

	o.opts.Logger.Info("workflow execution finished",
		"execution_id", exec.ID,
		"status", exec.Status,
		"elapsed", exec.Finished.Sub(exec.Started),
	)

	result := &Result{
		ExecutionID: exec.ID,
		Workflow:    def.Name,
		Status:      exec.Status,
		Output:      exec.Output,
		Elapsed:     exec.Finished.Sub(exec.Started),
	}

	if err != nil {
		return result, fmt.Errorf("workflow %s: %w", def.Name, err)
	}

	return result, nil
}

// checkAgents verifies every agent the definition references is registered.
func (o *Orchestrator) checkAgents(def Definition) error {
	names := make(map[string]struct{})

	for _, step := range def.Steps {
		names[step.AgentName] = struct{}{}
	}

	for _, branch := range def.Branches {
		names[branch.AgentName] = struct{}{}
	}

	if def.Synthesizer != "" {
		names[def.Synthesizer] = struct{}{}
	}

	if def.Supervisor != "" {
		names[def.Supervisor] = struct{}{}
	}

	for _, worker := range def.Routes {
		names[worker] = struct{}{}
	}

	for name := range names {
		if _, ok := o.agents[name]; !ok {
			return fmt.Errorf("workflow %s references unregistered agent %q", def.Name, name)
		}
	}

	return nil
}

// runAssignment drives one assignment through its lifecycle: ASSIGNED,
// RUNNING, then a terminal status from the agent outcome. It records one
// TASK_STEP action per assignment regardless of outcome.
func (o *Orchestrator) runAssignment(ctx context.Context, exec *Execution, a *Assignment) (string, error) {
	runner := o.agents[a.AgentName]

	if err := exec.Transition(a, AssignmentAssigned); err != nil {
		return "", err
	}

	if err := exec.Transition(a, AssignmentRunning); err != nil {
		return "", err
	}

	res, err := runner.ProcessQuery(ctx, a.ConversationID, a.Task, o.opts.UseRetrieval)

	var output string
	if res != nil {
		output = res.Message
	}

	if err != nil {
		if failErr := exec.Fail(a, err); failErr != nil {
			o.opts.Logger.Warn("discarding late assignment failure", "assignment_id", a.ID, "error", err)
			return "", failErr
		}

		o.recordStep(ctx, exec, a, core.ActionFailed, err)

		return output, err
	}

	if completeErr := exec.Complete(a, output); completeErr != nil {
		o.opts.Logger.Warn("discarding late assignment result", "assignment_id", a.ID)
		return "", completeErr
	}

	o.recordStep(ctx, exec, a, core.ActionCompleted, nil)

	return output, nil
}

// recordStep appends one TASK_STEP record for the assignment. Recording is
// best effort; a log failure never disturbs the assignment outcome.
func (o *Orchestrator) recordStep(ctx context.Context, exec *Execution, a *Assignment, status core.ActionStatus, cause error) {
	if o.opts.Actions == nil {
		return
	}

	input, _ := json.Marshal(map[string]string{
		"execution_id": exec.ID,
		"workflow":     exec.Workflow,
		"agent":        a.AgentName,
		"task":         a.Task,
	})

	record := core.NewActionRecord(a.ConversationID, core.ActionTaskStep)
	record.Status = status
	record.ToolName = a.AgentName
	record.Input = string(input)

	if cause != nil {
		record.Output = cause.Error()
	} else {
		record.Output = a.Output
	}

	if err := o.opts.Actions.Append(ctx, record); err != nil {
		o.opts.Logger.Warn("failed to record task step", "assignment_id", a.ID, "error", err)
	}
}
