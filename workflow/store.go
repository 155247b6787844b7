package workflow

import (
	"context"
	"errors"
	"sync"
)

// ErrExecutionNotFound is returned when an execution id is unknown.
var ErrExecutionNotFound = errors.New("execution not found")

// Store persists executions so they can be inspected after the run.
type Store interface {
	// Save stores or replaces an execution.
	Save(ctx context.Context, exec *Execution) error

	// Get returns the execution with the given id.
	Get(ctx context.Context, id string) (*Execution, error)

	// List returns all stored executions.
	List(ctx context.Context) ([]*Execution, error)
}

// InMemoryStore is a Store backed by a map. Safe for concurrent use.
type InMemoryStore struct {
	mu         sync.RWMutex
	executions map[string]*Execution
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory execution store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		executions: make(map[string]*Execution),
	}
}

// Save stores or replaces an execution.
func (s *InMemoryStore) Save(_ context.Context, exec *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[exec.ID] = exec

	return nil
}

// Get returns the execution with the given id.
func (s *InMemoryStore) Get(_ context.Context, id string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, ErrExecutionNotFound
	}

	return exec, nil
}

// List returns all stored executions.
func (s *InMemoryStore) List(_ context.Context) ([]*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	execs := make([]*Execution, 0, len(s.executions))
	for _, exec := range s.executions {
		execs = append(execs, exec)
	}

	return execs, nil
}
