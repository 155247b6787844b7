package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloom/actionlog"
	"github.com/hupe1980/agentloom/agent"
	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
)

// stubAgent is a Runner test double with a programmable reply function.
type stubAgent struct {
	mu    sync.Mutex
	name  string
	fn    func(ctx context.Context, query string) (string, error)
	calls []string
}

func newStubAgent(name string, fn func(ctx context.Context, query string) (string, error)) *stubAgent {
	return &stubAgent{name: name, fn: fn}
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) ProcessQuery(ctx context.Context, conversationID, queryText string, _ bool) (*agent.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, queryText)
	s.mu.Unlock()

	message := fmt.Sprintf("%s handled: %s", s.name, queryText)

	if s.fn != nil {
		var err error

		message, err = s.fn(ctx, queryText)
		if err != nil {
			return &agent.Result{
				AgentName:      s.name,
				ConversationID: conversationID,
				Query:          queryText,
				Error:          err.Error(),
			}, err
		}
	}

	return &agent.Result{
		AgentName:      s.name,
		ConversationID: conversationID,
		Query:          queryText,
		Message:        message,
	}, nil
}

func (s *stubAgent) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

func (s *stubAgent) lastCall() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.calls) == 0 {
		return ""
	}

	return s.calls[len(s.calls)-1]
}

func newTestOrchestrator(agents ...Runner) *Orchestrator {
	o := New(func(o *Options) {
		o.Logger = logging.NoOpLogger{}
	})

	for _, a := range agents {
		o.RegisterAgent(a)
	}

	return o
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"missing name", Definition{Strategy: StrategySequential, Steps: []Step{{AgentName: "a"}}}},
		{"unknown strategy", Definition{Name: "w", Strategy: "ROUND_ROBIN"}},
		{"sequential without steps", Definition{Name: "w", Strategy: StrategySequential}},
		{"parallel without synthesizer", Definition{Name: "w", Strategy: StrategyParallel, Branches: []Branch{{AgentName: "a"}}}},
		{"hierarchical without routes", Definition{Name: "w", Strategy: StrategyHierarchical, Supervisor: "boss"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.def.Validate())
		})
	}
}

func TestExecuteRejectsUnregisteredAgent(t *testing.T) {
	o := newTestOrchestrator(newStubAgent("writer", nil))

	def := Definition{
		Name:     "pipeline",
		Strategy: StrategySequential,
		Steps:    []Step{{AgentName: "writer", Task: "draft"}, {AgentName: "editor", Task: "polish"}},
	}

	_, err := o.Execute(context.Background(), def, "write a report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "editor")
}

func TestSequentialThreadsOutputs(t *testing.T) {
	research := newStubAgent("research", func(_ context.Context, _ string) (string, error) {
		return "facts about topic", nil
	})
	write := newStubAgent("write", func(_ context.Context, query string) (string, error) {
		return "draft built on " + query, nil
	})

	o := newTestOrchestrator(research, write)

	def := Definition{
		Name:     "report",
		Strategy: StrategySequential,
		Steps: []Step{
			{AgentName: "research", Task: "research the topic"},
			{AgentName: "write", Task: "write the report"},
		},
	}

	result, err := o.Execute(context.Background(), def, "quarterly numbers")
	require.NoError(t, err)

	assert.Equal(t, ExecutionCompleted, result.Status)
	assert.Contains(t, result.Output, "facts about topic")
	assert.Contains(t, write.lastCall(), "facts about topic")

	// Deterministic agents make re-execution reproducible.
	rerun, err := o.Execute(context.Background(), def, "quarterly numbers")
	require.NoError(t, err)
	assert.Equal(t, result.Output, rerun.Output)

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, exec.Assignments, 2)

	for _, a := range exec.Assignments {
		assert.Equal(t, AssignmentCompleted, a.Status)
	}
}

func TestSequentialFailFast(t *testing.T) {
	first := newStubAgent("first", nil)
	second := newStubAgent("second", func(_ context.Context, _ string) (string, error) {
		return "", errors.New("model unavailable")
	})
	third := newStubAgent("third", nil)

	o := newTestOrchestrator(first, second, third)

	def := Definition{
		Name:     "pipeline",
		Strategy: StrategySequential,
		Steps: []Step{
			{AgentName: "first", Task: "a"},
			{AgentName: "second", Task: "b"},
			{AgentName: "third", Task: "c"},
		},
	}

	result, err := o.Execute(context.Background(), def, "task")
	require.Error(t, err)

	assert.Equal(t, ExecutionFailed, result.Status)
	assert.Equal(t, 0, third.callCount())

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, exec.Assignments, 3)

	assert.Equal(t, AssignmentCompleted, exec.Assignments[0].Status)
	assert.Equal(t, AssignmentFailed, exec.Assignments[1].Status)
	assert.Equal(t, AssignmentPending, exec.Assignments[2].Status)
}

func TestParallelSynthesizesAllBranches(t *testing.T) {
	pro := newStubAgent("pro", func(_ context.Context, _ string) (string, error) {
		return "arguments in favor", nil
	})
	con := newStubAgent("con", func(_ context.Context, _ string) (string, error) {
		return "arguments against", nil
	})
	judge := newStubAgent("judge", func(_ context.Context, query string) (string, error) {
		return "verdict from: " + query, nil
	})

	o := newTestOrchestrator(pro, con, judge)

	def := Definition{
		Name:     "debate",
		Strategy: StrategyParallel,
		Branches: []Branch{
			{AgentName: "pro", Specialty: "supporting"},
			{AgentName: "con", Specialty: "opposing"},
		},
		Synthesizer: "judge",
	}

	result, err := o.Execute(context.Background(), def, "should we migrate")
	require.NoError(t, err)

	assert.Equal(t, ExecutionCompleted, result.Status)
	assert.Contains(t, result.Output, "arguments in favor")
	assert.Contains(t, result.Output, "arguments against")

	// Each branch saw its specialty tag.
	assert.Contains(t, pro.lastCall(), "[supporting]")
	assert.Contains(t, con.lastCall(), "[opposing]")
}

func TestParallelBranchFailureReachesSynthesizer(t *testing.T) {
	ok := newStubAgent("ok", func(_ context.Context, _ string) (string, error) {
		return "solid result", nil
	})
	broken := newStubAgent("broken", func(_ context.Context, _ string) (string, error) {
		return "", errors.New("upstream timeout")
	})
	judge := newStubAgent("judge", func(_ context.Context, query string) (string, error) {
		return query, nil
	})

	o := newTestOrchestrator(ok, broken, judge)

	def := Definition{
		Name:     "survey",
		Strategy: StrategyParallel,
		Branches: []Branch{
			{AgentName: "ok", Specialty: "sources"},
			{AgentName: "broken", Specialty: "stats"},
		},
		Synthesizer: "judge",
	}

	result, err := o.Execute(context.Background(), def, "summarize the field")
	require.NoError(t, err)

	assert.Equal(t, ExecutionCompleted, result.Status)
	assert.Contains(t, judge.lastCall(), "solid result")
	assert.Contains(t, judge.lastCall(), "[FAILED: upstream timeout]")

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, exec.Assignments, 3)

	assert.Equal(t, AssignmentCompleted, exec.Assignments[0].Status)
	assert.Equal(t, AssignmentFailed, exec.Assignments[1].Status)
	assert.Equal(t, AssignmentCompleted, exec.Assignments[2].Status)
}

func TestParallelSynthesizerFailureFailsExecution(t *testing.T) {
	branch := newStubAgent("branch", nil)
	judge := newStubAgent("judge", func(_ context.Context, _ string) (string, error) {
		return "", errors.New("synthesis broke")
	})

	o := newTestOrchestrator(branch, judge)

	def := Definition{
		Name:        "survey",
		Strategy:    StrategyParallel,
		Branches:    []Branch{{AgentName: "branch"}},
		Synthesizer: "judge",
	}

	result, err := o.Execute(context.Background(), def, "task")
	require.Error(t, err)
	assert.Equal(t, ExecutionFailed, result.Status)
}

func TestParallelDeadlineDiscardsLateResults(t *testing.T) {
	slow := newStubAgent("slow", func(ctx context.Context, _ string) (string, error) {
		select {
		case <-time.After(2 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	judge := newStubAgent("judge", nil)

	o := New(func(o *Options) {
		o.Logger = logging.NoOpLogger{}
		o.Timeout = 50 * time.Millisecond
	})
	o.RegisterAgent(slow)
	o.RegisterAgent(judge)

	def := Definition{
		Name:        "slowpoke",
		Strategy:    StrategyParallel,
		Branches:    []Branch{{AgentName: "slow"}},
		Synthesizer: "judge",
	}

	result, err := o.Execute(context.Background(), def, "task")
	require.Error(t, err)

	assert.Equal(t, ExecutionFailed, result.Status)
	assert.Equal(t, 0, judge.callCount())

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)

	for _, a := range exec.Assignments {
		assert.Equal(t, AssignmentFailed, a.Status)
		assert.Empty(t, a.Output)
	}
}

func TestHierarchicalRoutesSubtasks(t *testing.T) {
	supervisor := newStubAgent("boss", func(_ context.Context, query string) (string, error) {
		if strings.Contains(query, "Break the following task") {
			return "Here is the plan:\n```json\n[" +
				`{"type": "research", "description": "gather sources"},` +
				`{"type": "writing", "description": "draft the text"}` +
				"]\n```", nil
		}

		return "final report: " + query, nil
	})
	researcher := newStubAgent("researcher", func(_ context.Context, _ string) (string, error) {
		return "sources gathered", nil
	})
	writer := newStubAgent("writer", func(_ context.Context, _ string) (string, error) {
		return "text drafted", nil
	})

	o := newTestOrchestrator(supervisor, researcher, writer)

	def := Definition{
		Name:       "managed",
		Strategy:   StrategyHierarchical,
		Supervisor: "boss",
		Routes: map[string]string{
			"research": "researcher",
			"writing":  "writer",
		},
	}

	result, err := o.Execute(context.Background(), def, "produce a report")
	require.NoError(t, err)

	assert.Equal(t, ExecutionCompleted, result.Status)
	assert.Contains(t, result.Output, "sources gathered")
	assert.Contains(t, result.Output, "text drafted")

	assert.Equal(t, "gather sources", researcher.lastCall())
	assert.Equal(t, "draft the text", writer.lastCall())
	assert.Equal(t, 2, supervisor.callCount())

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, exec.Assignments, 4)
	assert.Equal(t, "boss", exec.Assignments[0].AgentName)
	assert.Equal(t, "boss", exec.Assignments[3].AgentName)
}

func TestHierarchicalWorkerFailureDoesNotHaltPlan(t *testing.T) {
	supervisor := newStubAgent("boss", func(_ context.Context, query string) (string, error) {
		if strings.Contains(query, "Break the following task") {
			return "[" +
				`{"type": "research", "description": "gather sources"},` +
				`{"type": "writing", "description": "draft the text"}` +
				"]", nil
		}

		return "digest: " + query, nil
	})
	researcher := newStubAgent("researcher", func(_ context.Context, _ string) (string, error) {
		return "", errors.New("search backend down")
	})
	writer := newStubAgent("writer", func(_ context.Context, _ string) (string, error) {
		return "text drafted", nil
	})

	o := newTestOrchestrator(supervisor, researcher, writer)

	def := Definition{
		Name:       "managed",
		Strategy:   StrategyHierarchical,
		Supervisor: "boss",
		Routes: map[string]string{
			"research": "researcher",
			"writing":  "writer",
		},
	}

	result, err := o.Execute(context.Background(), def, "produce a report")
	require.NoError(t, err)

	// The failed worker did not stop the later one, and the supervisor's
	// finalization input carries the failure marker.
	assert.Equal(t, ExecutionCompleted, result.Status)
	assert.Equal(t, 1, writer.callCount())
	assert.Contains(t, result.Output, "[FAILED: search backend down]")
	assert.Contains(t, result.Output, "text drafted")

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, exec.Assignments, 4)
	assert.Equal(t, AssignmentFailed, exec.Assignments[1].Status)
	assert.Equal(t, AssignmentCompleted, exec.Assignments[2].Status)
}

func TestHierarchicalUnparseablePlanFailsExecution(t *testing.T) {
	supervisor := newStubAgent("boss", func(_ context.Context, _ string) (string, error) {
		return "I would rather describe the plan in prose.", nil
	})
	worker := newStubAgent("worker", nil)

	o := newTestOrchestrator(supervisor, worker)

	def := Definition{
		Name:       "managed",
		Strategy:   StrategyHierarchical,
		Supervisor: "boss",
		Routes:     map[string]string{"work": "worker"},
	}

	result, err := o.Execute(context.Background(), def, "task")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNoPlan)
	assert.Equal(t, ExecutionFailed, result.Status)
	assert.Equal(t, 0, worker.callCount())
}

func TestHierarchicalUnroutedTypeFailsExecution(t *testing.T) {
	supervisor := newStubAgent("boss", func(_ context.Context, _ string) (string, error) {
		return `[{"type": "deploy", "description": "ship it"}]`, nil
	})
	worker := newStubAgent("worker", nil)

	o := newTestOrchestrator(supervisor, worker)

	def := Definition{
		Name:       "managed",
		Strategy:   StrategyHierarchical,
		Supervisor: "boss",
		Routes:     map[string]string{"work": "worker"},
	}

	result, err := o.Execute(context.Background(), def, "task")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "deploy")
	assert.Equal(t, ExecutionFailed, result.Status)
	assert.Equal(t, 0, worker.callCount())
}

func TestExecuteRecordsTaskSteps(t *testing.T) {
	actions := actionlog.NewInMemoryLog()

	o := New(func(o *Options) {
		o.Logger = logging.NoOpLogger{}
		o.Actions = actions
	})

	worker := newStubAgent("worker", nil)
	o.RegisterAgent(worker)

	def := Definition{
		Name:     "single",
		Strategy: StrategySequential,
		Steps:    []Step{{AgentName: "worker", Task: "do the thing"}},
	}

	result, err := o.Execute(context.Background(), def, "task")
	require.NoError(t, err)

	exec, err := o.Store().Get(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Len(t, exec.Assignments, 1)

	records, err := actions.List(context.Background(), exec.Assignments[0].ConversationID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, core.ActionTaskStep, records[0].Kind)
	assert.Equal(t, core.ActionCompleted, records[0].Status)
	assert.Equal(t, "worker", records[0].ToolName)
}

func TestAssignmentTransitionsAreMonotonic(t *testing.T) {
	exec := NewExecution(Definition{Name: "w", Strategy: StrategySequential}, "task")
	a := exec.AddAssignment("worker", "do it")

	require.NoError(t, exec.Transition(a, AssignmentAssigned))
	require.NoError(t, exec.Transition(a, AssignmentRunning))
	require.NoError(t, exec.Complete(a, "done"))

	assert.Error(t, exec.Transition(a, AssignmentRunning))
	assert.Error(t, exec.Fail(a, errors.New("late failure")))
	assert.Equal(t, AssignmentCompleted, a.Status)
	assert.Equal(t, "done", a.Output)
}

func TestExecutionFinishIsTerminal(t *testing.T) {
	exec := NewExecution(Definition{Name: "w", Strategy: StrategySequential}, "task")

	exec.Finish(ExecutionCompleted, "result", nil)
	exec.Finish(ExecutionFailed, "", errors.New("too late"))

	assert.Equal(t, ExecutionCompleted, exec.Status)
	assert.Equal(t, "result", exec.Output)
	assert.Empty(t, exec.Error)
}

func TestParsePlan(t *testing.T) {
	t.Run("bare json", func(t *testing.T) {
		subtasks, err := parsePlan(`[{"type": "a", "description": "first"}]`)
		require.NoError(t, err)
		require.Len(t, subtasks, 1)
		assert.Equal(t, "a", subtasks[0].Type)
	})

	t.Run("prose wrapped", func(t *testing.T) {
		subtasks, err := parsePlan("Sure, here is the plan:\n[{\"type\": \"a\", \"description\": \"first\"}]\nLet me know.")
		require.NoError(t, err)
		require.Len(t, subtasks, 1)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := parsePlan(`[{"type": "a"}]`)
		assert.Error(t, err)
	})

	t.Run("no array", func(t *testing.T) {
		_, err := parsePlan("no structure here")
		assert.ErrorIs(t, err, ErrNoPlan)
	})
}
