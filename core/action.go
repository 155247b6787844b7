package core

import (
	"context"
	"time"
)

// ActionKind categorizes an action record.
type ActionKind string

const (
	// ActionQuery records a plain model query without tool involvement.
	ActionQuery ActionKind = "QUERY"
	// ActionToolCall records one dispatched tool invocation.
	ActionToolCall ActionKind = "TOOL_CALL"
	// ActionTaskStep records one workflow assignment step.
	ActionTaskStep ActionKind = "TASK_STEP"
)

// ActionStatus is the terminal outcome of a logged action.
type ActionStatus string

const (
	// ActionCompleted marks a successfully executed action.
	ActionCompleted ActionStatus = "COMPLETED"
	// ActionFailed marks an action that produced an error.
	ActionFailed ActionStatus = "FAILED"
)

// ActionRecord is the durable audit entry for one executed action. Records
// are append-only and never updated after creation; a correction is a new
// record. Input and Output are JSON snapshots taken at execution time.
type ActionRecord struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Kind           ActionKind    `json:"kind"`
	ToolName       string        `json:"tool_name,omitempty"` // empty for plain queries
	Input          string        `json:"input"`
	Output         string        `json:"output"`
	Duration       time.Duration `json:"duration"`
	Status         ActionStatus  `json:"status"`
	Created        time.Time     `json:"created"`
}

// NewActionRecord creates a record with a fresh id and UTC creation time.
func NewActionRecord(conversationID string, kind ActionKind) ActionRecord {
	return ActionRecord{
		ID:             NewID(),
		ConversationID: conversationID,
		Kind:           kind,
		Created:        time.Now().UTC(),
	}
}

// ActionLog is the durable, append-only record of executed actions. An
// implementation's own append failure is reported to the caller but must
// never unwind the workflow that attempted the write; the log is never
// rolled back.
type ActionLog interface {
	// Append stores one record. Implementations must support concurrent
	// appends without lost writes.
	Append(ctx context.Context, rec ActionRecord) error

	// List returns all records for a conversation in append order.
	List(ctx context.Context, conversationID string) ([]ActionRecord, error)
}
