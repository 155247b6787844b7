package core

import (
	"context"
	"sync"
	"time"
)

// ConversationStatus tracks the lifecycle of a conversation. Conversations
// are never deleted by the core; retention is an external policy.
type ConversationStatus string

const (
	// ConversationActive accepts new messages.
	ConversationActive ConversationStatus = "ACTIVE"
	// ConversationArchived refuses further appends.
	ConversationArchived ConversationStatus = "ARCHIVED"
)

// Conversation is an append-only container of messages keyed by an opaque id.
// It is safe for concurrent access.
//
// Contract:
//   - Messages are appended, never mutated or removed
//   - Insertion order equals causal order
//   - Clone returns a deep copy safe for independent reads
type Conversation struct {
	ID       string             `json:"id"`
	Status   ConversationStatus `json:"status"`
	Messages []Message          `json:"messages"`
	Created  time.Time          `json:"created"`
	Updated  time.Time          `json:"updated"`
	mu       sync.RWMutex
}

// NewConversation creates an empty active conversation with the given id.
func NewConversation(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{ID: id, Status: ConversationActive, Created: now, Updated: now}
}

// Append adds a message to the end of the conversation. It fails with
// ErrConversationArchived once the conversation is archived.
func (c *Conversation) Append(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Status == ConversationArchived {
		return ErrConversationArchived
	}
	c.Messages = append(c.Messages, msg)
	c.Updated = time.Now().UTC()
	return nil
}

// Archive transitions the conversation to ARCHIVED. Archiving is idempotent.
func (c *Conversation) Archive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Status = ConversationArchived
	c.Updated = time.Now().UTC()
}

// Tail returns a defensive copy of the most recent limit messages, oldest
// first. limit <= 0 returns the full history.
func (c *Conversation) Tail(limit int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	start := 0
	if limit > 0 && len(c.Messages) > limit {
		start = len(c.Messages) - limit
	}
	out := make([]Message, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

// Len returns the number of appended messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Messages)
}

// Clone returns a deep copy of the conversation (except the mutex).
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{ID: c.ID, Status: c.Status, Created: c.Created, Updated: c.Updated}
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return clone
}

// AppendOptions configures a single ConversationStore.Append call.
type AppendOptions struct {
	// AutoCreate creates the conversation on first append instead of
	// failing with ErrConversationNotFound.
	AutoCreate bool
}

// ConversationStore persists conversations and their append-only message
// history. Implementations must support concurrent appends from multiple
// in-flight agent calls without lost writes; each append is atomic and no
// ordering is assumed between appends from concurrent branches.
type ConversationStore interface {
	// Create allocates a new empty conversation with the given id.
	Create(ctx context.Context, id string) (*Conversation, error)

	// Get returns a snapshot of the conversation or ErrConversationNotFound.
	Get(ctx context.Context, id string) (*Conversation, error)

	// Append adds a message to the conversation. Unknown ids fail with
	// ErrConversationNotFound unless opts request auto-creation.
	Append(ctx context.Context, id string, msg Message, optFns ...func(o *AppendOptions)) error

	// History returns the most recent limit messages, oldest first.
	History(ctx context.Context, id string, limit int) ([]Message, error)

	// Archive marks the conversation ARCHIVED, refusing further appends.
	Archive(ctx context.Context, id string) error
}
