package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentloom/core"
)

// ExecutionStatus tracks the lifecycle of one workflow run.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "RUNNING"
	ExecutionCompleted ExecutionStatus = "COMPLETED"
	ExecutionFailed    ExecutionStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// AssignmentStatus tracks one unit of delegated work.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentAssigned  AssignmentStatus = "ASSIGNED"
	AssignmentRunning   AssignmentStatus = "RUNNING"
	AssignmentCompleted AssignmentStatus = "COMPLETED"
	AssignmentFailed    AssignmentStatus = "FAILED"
)

var assignmentRank = map[AssignmentStatus]int{
	AssignmentPending:   0,
	AssignmentAssigned:  1,
	AssignmentRunning:   2,
	AssignmentCompleted: 3,
	AssignmentFailed:    3,
}

// Assignment is one unit of work delegated to an agent within an execution.
type Assignment struct {
	ID             string           `json:"id"`
	ExecutionID    string           `json:"execution_id"`
	AgentName      string           `json:"agent_name"`
	Task           string           `json:"task"`
	ConversationID string           `json:"conversation_id"`
	Status         AssignmentStatus `json:"status"`
	Output         string           `json:"output,omitempty"`
	Error          string           `json:"error,omitempty"`
	Created        time.Time        `json:"created"`
	Updated        time.Time        `json:"updated"`
}

// Execution is one run of a workflow definition. Status moves from RUNNING
// to exactly one terminal status and never back.
type Execution struct {
	mu sync.Mutex

	ID          string          `json:"id"`
	Workflow    string          `json:"workflow"`
	Strategy    Strategy        `json:"strategy"`
	Task        string          `json:"task"`
	Status      ExecutionStatus `json:"status"`
	Output      string          `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	Assignments []*Assignment   `json:"assignments"`
	Started     time.Time       `json:"started"`
	Finished    time.Time       `json:"finished,omitempty"`
}

// NewExecution creates a RUNNING execution for the given definition and task.
func NewExecution(def Definition, task string) *Execution {
	return &Execution{
		ID:       core.NewID(),
		Workflow: def.Name,
		Strategy: def.Strategy,
		Task:     task,
		Status:   ExecutionRunning,
		Started:  time.Now(),
	}
}

// AddAssignment creates a PENDING assignment bound to this execution.
func (e *Execution) AddAssignment(agentName, task string) *Assignment {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := &Assignment{
		ID:             core.NewID(),
		ExecutionID:    e.ID,
		AgentName:      agentName,
		Task:           task,
		ConversationID: core.NewID(),
		Status:         AssignmentPending,
		Created:        time.Now(),
		Updated:        time.Now(),
	}

	e.Assignments = append(e.Assignments, a)

	return a
}

// Transition advances an assignment. Backward transitions are rejected so a
// terminal assignment never reopens and a late result cannot overwrite an
// earlier terminal state.
func (e *Execution) Transition(a *Assignment, status AssignmentStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if assignmentRank[status] <= assignmentRank[a.Status] && status != a.Status {
		return fmt.Errorf("assignment %s: invalid transition %s -> %s", a.ID, a.Status, status)
	}

	if a.Status == AssignmentCompleted || a.Status == AssignmentFailed {
		return fmt.Errorf("assignment %s: already terminal in status %s", a.ID, a.Status)
	}

	a.Status = status
	a.Updated = time.Now()

	return nil
}

// Complete marks the assignment COMPLETED with its output.
func (e *Execution) Complete(a *Assignment, output string) error {
	if err := e.Transition(a, AssignmentCompleted); err != nil {
		return err
	}

	e.mu.Lock()
	a.Output = output
	e.mu.Unlock()

	return nil
}

// Fail marks the assignment FAILED with its error message.
func (e *Execution) Fail(a *Assignment, cause error) error {
	if err := e.Transition(a, AssignmentFailed); err != nil {
		return err
	}

	e.mu.Lock()
	if cause != nil {
		a.Error = cause.Error()
	}
	e.mu.Unlock()

	return nil
}

// Finish moves the execution to a terminal status. Once terminal the
// execution ignores further finish calls.
func (e *Execution) Finish(status ExecutionStatus, output string, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Status.Terminal() {
		return
	}

	e.Status = status
	e.Output = output
	e.Finished = time.Now()

	if cause != nil {
		e.Error = cause.Error()
	}
}
