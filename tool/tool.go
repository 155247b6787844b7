// Package tool implements the function / tool calling subsystem that lets
// agents invoke structured capabilities (APIs, computations, side effects)
// with schema validated arguments, consistent error handling and rich
// metadata for LLM guidance.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloom/internal/schema"
)

// Descriptor declares a registered capability: a unique name, a description
// shown to models, and a minimal JSON-Schema-like map describing accepted
// arguments (type: object, properties, required).
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Handler executes a tool call with already schema-validated arguments.
//
// Handlers are supplied by external collaborators and may perform I/O; they
// must respect ctx cancellation. The registry treats every dispatch as
// at-most-once and makes no idempotence assumptions.
//
// Handler implementations should:
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
//   - Return JSON-serializable results
type Handler interface {
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Func adapts a plain function to the Handler interface.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Call implements Handler.
func (f Func) Call(ctx context.Context, args map[string]any) (any, error) { return f(ctx, args) }

// SchemaError reports tool arguments that failed validation against the
// matching descriptor. It is produced before dispatch; invalid arguments
// never reach the handler.
type SchemaError = schema.Error

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// Error codes applied by the registry for uniform downstream handling.
const (
	// CodeValidation marks schema / argument mismatches.
	CodeValidation = "VALIDATION_ERROR"
	// CodeExecution marks failures returned by the underlying handler.
	CodeExecution = "EXECUTION_ERROR"
	// CodeNotFound marks dispatches against an unregistered tool name.
	CodeNotFound = "NOT_FOUND"
)
