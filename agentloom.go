// Package agentloom provides a high-level façade over the agent execution
// core (conversations, tools, retrieval, action logging) and the workflow
// orchestrator. Most applications interact with this package by:
//  1. Creating an AgentLoom via New() (optionally overriding the default
//     in-memory stores)
//  2. Registering one or more agents built on a model gateway
//  3. Asking an agent directly (Ask) or executing a workflow (Execute)
//
// The façade wires every registered agent to shared conversation, action-log
// and retrieval services so multi-agent workflows observe a single audit
// trail. All defaults are safe for local development and testing; production
// deployments typically supply durable store implementations and a
// structured logger.
package agentloom

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentloom/actionlog"
	"github.com/hupe1980/agentloom/agent"
	"github.com/hupe1980/agentloom/conversation"
	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/workflow"
)

// Options configures the AgentLoom instance.
type Options struct {
	// Stores shared by all registered agents (default to in-memory
	// implementations if not provided).
	Conversations core.ConversationStore
	Actions       core.ActionLog
	Executions    workflow.Store

	// Retriever enables retrieval-augmented turns for all agents. Nil
	// disables retrieval.
	Retriever agent.Retriever

	// WorkflowTimeout bounds one workflow execution end to end. Zero means
	// no deadline.
	WorkflowTimeout time.Duration

	// UseRetrieval controls whether workflow assignments request retrieval
	// augmentation.
	UseRetrieval bool

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentLoom is the high-level façade aggregating agents, shared stores and
// the workflow orchestrator.
type AgentLoom struct {
	opts         Options
	agents       map[string]*agent.Agent
	orchestrator *workflow.Orchestrator
}

// New creates a new AgentLoom instance with optional overrides. Any unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentLoom {
	opts := Options{
		Conversations: conversation.NewInMemoryStore(),
		Actions:       actionlog.NewInMemoryLog(),
		Executions:    workflow.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	orchestrator := workflow.New(func(o *workflow.Options) {
		o.Store = opts.Executions
		o.Actions = opts.Actions
		o.Logger = opts.Logger
		o.Timeout = opts.WorkflowTimeout
		o.UseRetrieval = opts.UseRetrieval
	})

	return &AgentLoom{
		opts:         opts,
		agents:       make(map[string]*agent.Agent),
		orchestrator: orchestrator,
	}
}

// RegisterAgent creates an agent on the shared stores and makes it
// addressable by name, both directly and from workflow definitions. The
// returned agent exposes its tool registry for startup registration.
func (l *AgentLoom) RegisterAgent(name string, llm model.Model, optFns ...func(o *agent.Options)) *agent.Agent {
	a := agent.New(name, llm, func(o *agent.Options) {
		o.Conversations = l.opts.Conversations
		o.Actions = l.opts.Actions
		o.Retriever = l.opts.Retriever
		o.Logger = l.opts.Logger

		for _, fn := range optFns {
			fn(o)
		}
	})

	l.agents[name] = a
	l.orchestrator.RegisterAgent(a)

	return a
}

// Agent returns a registered agent by name.
func (l *AgentLoom) Agent(name string) (*agent.Agent, bool) {
	a, ok := l.agents[name]
	return a, ok
}

// Ask runs one turn of the named agent within the given conversation.
func (l *AgentLoom) Ask(ctx context.Context, agentName, conversationID, queryText string) (*agent.Result, error) {
	a, ok := l.agents[agentName]
	if !ok {
		return nil, fmt.Errorf("agent %q is not registered", agentName)
	}

	return a.ProcessQuery(ctx, conversationID, queryText, l.opts.Retriever != nil)
}

// Execute runs a workflow definition against the task using the registered
// agents.
func (l *AgentLoom) Execute(ctx context.Context, def workflow.Definition, task string) (*workflow.Result, error) {
	return l.orchestrator.Execute(ctx, def, task)
}

// History returns the recorded messages of a conversation, oldest first.
func (l *AgentLoom) History(ctx context.Context, conversationID string, limit int) ([]core.Message, error) {
	return l.opts.Conversations.History(ctx, conversationID, limit)
}

// Actions returns the action records of a conversation in append order.
func (l *AgentLoom) Actions(ctx context.Context, conversationID string) ([]core.ActionRecord, error) {
	return l.opts.Actions.List(ctx, conversationID)
}
