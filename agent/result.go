package agent

import "time"

// ToolResult is the outcome of one dispatched tool call, paired 1:1 with the
// model-requested call that produced it.
type ToolResult struct {
	CallID   string        `json:"call_id"`
	Name     string        `json:"name"`
	Output   any           `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the tool call produced an error.
func (r ToolResult) Failed() bool { return r.Error != "" }

// Result is the structured outcome of one ProcessQuery call. It always
// carries the original query; on failure the Error field holds a
// description so callers never receive a bare error at the boundary.
type Result struct {
	AgentName      string        `json:"agent_name"`
	ConversationID string        `json:"conversation_id"`
	Query          string        `json:"query"`
	Message        string        `json:"message"`
	ToolResults    []ToolResult  `json:"tool_results,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
	Error          string        `json:"error,omitempty"`
}

// Failed reports whether the turn ended in the failure variant.
func (r *Result) Failed() bool { return r.Error != "" }
