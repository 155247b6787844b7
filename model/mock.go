package model

import (
	"context"
	"fmt"
	"sync"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It returns canned completions keyed by query text and can script tool-call
// turns that fire once then fall through to the plain response.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	toolTurns map[string][]ToolCall
	requests  []Request
	err       error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider, SupportsTools: true},
		responses: make(map[string]string),
		toolTurns: make(map[string][]ToolCall),
	}
}

// AddResponse registers a deterministic canned completion for a query.
func (m *MockModel) AddResponse(query, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[query] = response
}

// AddToolCalls scripts tool-call requests for a query. The calls are
// returned once; a repeated query yields the plain canned response.
func (m *MockModel) AddToolCalls(query string, calls ...ToolCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolTurns[query] = calls
}

// Fail makes every subsequent Generate call return the given error.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests seen so far, in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(m.info.Provider, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, NewError(m.info.Provider, m.err)
	}

	if calls, ok := m.toolTurns[req.Query]; ok {
		delete(m.toolTurns, req.Query)
		return &Response{ID: fmt.Sprintf("mock-%d", len(m.requests)), ToolCalls: calls}, nil
	}

	text := m.responses[req.Query]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", req.Query)
	}
	return &Response{ID: fmt.Sprintf("mock-%d", len(m.requests)), Text: text}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
