package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/tool"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON object of arguments
}

// ArgumentsMap decodes the raw argument payload into a generic map.
func (c ToolCall) ArgumentsMap() (map[string]any, error) {
	args := map[string]any{}
	if len(c.Arguments) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(c.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decode arguments for %s: %w", c.Name, err)
	}
	return args, nil
}

// Request captures the normalized model input produced by an agent turn:
// ordered history messages, the tool descriptors exposed for function
// calling, optional retrieved context and the current query.
type Request struct {
	Instructions string                   `json:"instructions,omitempty"`
	History      []core.Message           `json:"history,omitempty"`
	Documents    []core.RetrievedDocument `json:"documents,omitempty"`
	Query        string                   `json:"query"`
	Tools        []tool.Descriptor        `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete model output for one round trip.
type Response struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	Usage     *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Generate performs exactly one round trip; iterative behavior belongs to
// the caller.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Error wraps a provider failure. A model error is fatal to the agent turn
// that issued the request; no result can be produced without a response.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("model error (%s): %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with the originating provider name.
func NewError(provider string, err error) *Error {
	return &Error{Provider: provider, Err: err}
}
