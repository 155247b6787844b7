package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author category of a message.
type Role string

const (
	// RoleUser marks messages authored by the end user (or an orchestrator
	// acting on its behalf).
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the language model.
	RoleAssistant Role = "assistant"
	// RoleTool marks messages carrying the result of a dispatched tool call.
	RoleTool Role = "tool"
)

// Message is an immutable conversational record. Once appended to a
// conversation it is never updated; insertion order is the sole ordering
// guarantee within a conversation.
//
// ToolCallID links a tool-role message back to the model-issued call it
// answers. ToolCallIDs lists the calls an assistant message requested.
// Both are empty for plain text messages.
type Message struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	ToolCallID  string    `json:"tool_call_id,omitempty"`
	ToolCallIDs []string  `json:"tool_call_ids,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and UTC timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage is a convenience wrapper for a user-authored text message.
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage is a convenience wrapper for an assistant text message.
func NewAssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// NewToolMessage records the textual outcome of a tool call, linked to the
// originating call id.
func NewToolMessage(toolCallID, content string) Message {
	m := NewMessage(RoleTool, content)
	m.ToolCallID = toolCallID
	return m
}

// NewID generates a new unique identifier for messages, records and
// executions. Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
