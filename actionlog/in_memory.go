// Package actionlog provides implementations of core.ActionLog, the durable
// append-only audit record of queries, tool calls and workflow task steps.
package actionlog

import (
	"context"
	"sync"

	"github.com/hupe1980/agentloom/core"
)

// InMemoryLog is a volatile ActionLog keeping records in insertion order per
// conversation. Safe for concurrent appends; reads return defensive copies.
type InMemoryLog struct {
	mu      sync.RWMutex
	records map[string][]core.ActionRecord
}

var _ core.ActionLog = (*InMemoryLog)(nil)

// NewInMemoryLog constructs an empty in-memory action log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{records: make(map[string][]core.ActionRecord)}
}

// Append implements core.ActionLog.
func (l *InMemoryLog) Append(_ context.Context, rec core.ActionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rec.ConversationID] = append(l.records[rec.ConversationID], rec)
	return nil
}

// List implements core.ActionLog returning records in append order.
func (l *InMemoryLog) List(_ context.Context, conversationID string) ([]core.ActionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	recs := l.records[conversationID]
	out := make([]core.ActionRecord, len(recs))
	copy(out, recs)
	return out, nil
}
