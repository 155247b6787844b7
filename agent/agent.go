package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentloom/actionlog"
	"github.com/hupe1980/agentloom/conversation"
	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/tool"
)

// Retriever is the retrieval gateway contract consumed by agents. Satisfied
// by *retrieval.Gateway; kept as a local interface so tests can stub it.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string, limit int, threshold float64) ([]core.RetrievedDocument, error)
}

// Options configures an Agent instance. Use functional options with New to
// override defaults.
type Options struct {
	// Instructions is the system prompt handed to the model gateway.
	Instructions string

	// MaxHistory bounds the number of prior messages included per turn.
	MaxHistory int

	// RetrievalLimit and RetrievalThreshold parameterize retrieval-augmented
	// turns.
	RetrievalLimit     int
	RetrievalThreshold float64

	// MaxParallelTools caps concurrent tool dispatch within one turn.
	// 0 means no explicit limit.
	MaxParallelTools int

	// ToolTimeout bounds each individual tool call.
	ToolTimeout time.Duration

	// Collaborators. Unset stores default to in-memory implementations;
	// an unset Retriever disables retrieval augmentation.
	Conversations core.ConversationStore
	Actions       core.ActionLog
	Registry      *tool.Registry
	Retriever     Retriever
	Logger        logging.Logger
}

// Agent runs one reasoning turn per ProcessQuery call. It is safe for
// concurrent use once constructed; tool registration must be serialized
// against execution start.
type Agent struct {
	name          string
	llm           model.Model
	instructions  string
	maxHistory    int
	retrLimit     int
	retrThreshold float64
	conversations core.ConversationStore
	actions       core.ActionLog
	registry      *tool.Registry
	retriever     Retriever
	logger        logging.Logger
	dispatcher    *dispatcher
}

// New creates an agent with sensible defaults:
//   - 10-message conversation history window
//   - retrieval limit 5 at threshold 0.7
//   - 15-second timeout per tool call
//   - in-memory conversation store and action log
//   - empty tool registry, no retriever, silent logger
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxHistory:         10,
		RetrievalLimit:     5,
		RetrievalThreshold: 0.7,
		ToolTimeout:        15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Conversations == nil {
		opts.Conversations = conversation.NewInMemoryStore()
	}
	if opts.Actions == nil {
		opts.Actions = actionlog.NewInMemoryLog()
	}
	if opts.Registry == nil {
		opts.Registry = tool.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	// Log writes are retried once before their failure is surfaced.
	actions := actionlog.WithRetry(opts.Actions, opts.Logger)

	return &Agent{
		name:          name,
		llm:           llm,
		instructions:  opts.Instructions,
		maxHistory:    opts.MaxHistory,
		retrLimit:     opts.RetrievalLimit,
		retrThreshold: opts.RetrievalThreshold,
		conversations: opts.Conversations,
		actions:       actions,
		registry:      opts.Registry,
		retriever:     opts.Retriever,
		logger:        opts.Logger,
		dispatcher: &dispatcher{
			registry:    opts.Registry,
			actions:     actions,
			logger:      opts.Logger,
			maxParallel: opts.MaxParallelTools,
			timeout:     opts.ToolTimeout,
		},
	}
}

// Name returns the agent's identifier.
func (a *Agent) Name() string { return a.name }

// Registry exposes the agent's tool registry for startup registration.
func (a *Agent) Registry() *tool.Registry { return a.registry }

// ProcessQuery runs one reasoning turn against the given conversation.
//
// The returned Result is always non-nil and carries the original query; on a
// fatal turn failure (a model error) the error return is non-nil and the
// Result holds the failure description. Retrieval and history failures are
// non-fatal: the turn proceeds with reduced context.
func (a *Agent) ProcessQuery(ctx context.Context, conversationID, queryText string, useRetrieval bool) (*Result, error) {
	start := time.Now()

	a.logger.Debug(
		"agent.query.start",
		"agent", a.name,
		"conversation_id", conversationID,
		"retrieval", useRetrieval,
	)

	history := a.loadHistory(ctx, conversationID)

	var docs []core.RetrievedDocument
	if useRetrieval {
		docs = a.retrieve(ctx, queryText)
	}

	req := model.Request{
		Instructions: a.instructions,
		History:      history,
		Documents:    docs,
		Query:        queryText,
		Tools:        a.registry.Descriptors(),
	}

	resp, err := a.llm.Generate(ctx, req)
	if err != nil {
		elapsed := time.Since(start)
		a.logger.Error("agent.model.error", "agent", a.name, "error", err.Error())
		a.recordQuery(ctx, conversationID, queryText, err.Error(), elapsed, core.ActionFailed)

		return &Result{
			AgentName:      a.name,
			ConversationID: conversationID,
			Query:          queryText,
			Elapsed:        elapsed,
			Error:          err.Error(),
		}, err
	}

	var toolResults []ToolResult
	if len(resp.ToolCalls) > 0 {
		toolResults = a.dispatcher.dispatchAll(ctx, conversationID, resp.ToolCalls)
	} else {
		a.recordQuery(ctx, conversationID, queryText, resp.Text, time.Since(start), core.ActionCompleted)
	}

	a.appendAssistantMessage(ctx, conversationID, resp)

	elapsed := time.Since(start)
	a.logger.Info(
		"agent.query.complete",
		"agent", a.name,
		"conversation_id", conversationID,
		"tool_calls", len(resp.ToolCalls),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &Result{
		AgentName:      a.name,
		ConversationID: conversationID,
		Query:          queryText,
		Message:        resp.Text,
		ToolResults:    toolResults,
		Elapsed:        elapsed,
	}, nil
}

// loadHistory reads the recent message window, retrying once on store
// failure and degrading to an empty window afterwards. An unknown
// conversation id is the normal first-turn case.
func (a *Agent) loadHistory(ctx context.Context, conversationID string) []core.Message {
	history, err := a.conversations.History(ctx, conversationID, a.maxHistory)
	if err != nil && !errors.Is(err, core.ErrConversationNotFound) {
		a.logger.Warn("agent.history.retry", "agent", a.name, "error", err.Error())
		history, err = a.conversations.History(ctx, conversationID, a.maxHistory)
	}
	if err != nil {
		if !errors.Is(err, core.ErrConversationNotFound) {
			a.logger.Warn("agent.history.unavailable", "agent", a.name, "error", err.Error())
		}
		return nil
	}
	return history
}

// retrieve performs best-effort retrieval augmentation. Any retrieval error
// degrades to empty context rather than aborting the turn.
func (a *Agent) retrieve(ctx context.Context, queryText string) []core.RetrievedDocument {
	if a.retriever == nil {
		a.logger.Debug("agent.retrieval.skipped", "agent", a.name, "reason", "no retriever configured")
		return nil
	}
	docs, err := a.retriever.Retrieve(ctx, queryText, a.retrLimit, a.retrThreshold)
	if err != nil {
		a.logger.Warn("agent.retrieval.degraded", "agent", a.name, "error", err.Error())
		return nil
	}
	return docs
}

// recordQuery appends the QUERY action record for a plain (tool-free) turn.
// Log failures are reported but never unwind the turn.
func (a *Agent) recordQuery(ctx context.Context, conversationID, input, output string, dur time.Duration, status core.ActionStatus) {
	rec := core.NewActionRecord(conversationID, core.ActionQuery)
	rec.Input = input
	rec.Output = output
	rec.Duration = dur
	rec.Status = status
	if err := a.actions.Append(ctx, rec); err != nil {
		a.logger.Error("agent.actionlog.append.failed", "agent", a.name, "error", err.Error())
	}
}

// appendAssistantMessage persists the final assistant message, retrying once
// and reporting (not propagating) a persistent failure.
func (a *Agent) appendAssistantMessage(ctx context.Context, conversationID string, resp *model.Response) {
	msg := core.NewAssistantMessage(resp.Text)
	for _, call := range resp.ToolCalls {
		msg.ToolCallIDs = append(msg.ToolCallIDs, call.ID)
	}

	autoCreate := func(o *core.AppendOptions) { o.AutoCreate = true }

	err := a.conversations.Append(ctx, conversationID, msg, autoCreate)
	if err != nil {
		a.logger.Warn("agent.append.retry", "agent", a.name, "error", err.Error())
		err = a.conversations.Append(ctx, conversationID, msg, autoCreate)
	}
	if err != nil {
		a.logger.Error("agent.append.failed", "agent", a.name, "error", err.Error())
	}
}
