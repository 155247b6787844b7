// Package conversation provides implementations of core.ConversationStore,
// the append-only conversation history contract consumed by agents.
package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloom/core"
)

// InMemoryStore is a volatile ConversationStore implementation storing
// conversations in a process local map. It is safe for concurrent access and
// best suited for tests or ephemeral demo servers. Each returned
// conversation is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*core.Conversation
}

var _ core.ConversationStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*core.Conversation)}
}

// Create allocates a new conversation. Creating an existing id fails so that
// callers never silently discard history.
func (s *InMemoryStore) Create(_ context.Context, id string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; ok {
		return nil, fmt.Errorf("conversation %s already exists", id)
	}
	conv := core.NewConversation(id)
	s.conversations[id] = conv
	return conv.Clone(), nil
}

// Get returns a snapshot of the conversation or core.ErrConversationNotFound.
func (s *InMemoryStore) Get(_ context.Context, id string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, core.ErrConversationNotFound
	}
	return conv.Clone(), nil
}

// Append adds a message to an existing conversation, creating it first when
// auto-creation is requested.
func (s *InMemoryStore) Append(_ context.Context, id string, msg core.Message, optFns ...func(o *core.AppendOptions)) error {
	opts := core.AppendOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		if !opts.AutoCreate {
			return core.ErrConversationNotFound
		}
		conv = core.NewConversation(id)
		s.conversations[id] = conv
	}
	return conv.Append(msg)
}

// History returns the most recent limit messages, oldest first.
func (s *InMemoryStore) History(_ context.Context, id string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, core.ErrConversationNotFound
	}
	return conv.Tail(limit), nil
}

// Archive marks the conversation ARCHIVED.
func (s *InMemoryStore) Archive(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return core.ErrConversationNotFound
	}
	conv.Archive()
	return nil
}
