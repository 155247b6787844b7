package agentloom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloom/agent"
	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/workflow"
)

func TestAskRunsRegisteredAgent(t *testing.T) {
	loom := New()

	llm := model.NewMockModel("mock", "test")
	llm.AddResponse("hi", "hello from the mock")

	loom.RegisterAgent("Assistant", llm, func(o *agent.Options) {
		o.Instructions = "Be brief."
	})

	result, err := loom.Ask(context.Background(), "Assistant", "conv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello from the mock", result.Message)

	// The turn appended exactly one assistant message to the shared store.
	history, err := loom.History(context.Background(), "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleAssistant, history[0].Role)

	// And exactly one query record to the shared action log.
	records, err := loom.Actions(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.ActionQuery, records[0].Kind)
}

func TestAskRejectsUnknownAgent(t *testing.T) {
	loom := New()

	_, err := loom.Ask(context.Background(), "Ghost", "conv-1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ghost")
}

func TestExecuteUsesRegisteredAgents(t *testing.T) {
	loom := New()

	first := model.NewMockModel("researcher-llm", "test")
	second := model.NewMockModel("writer-llm", "test")

	loom.RegisterAgent("Researcher", first)
	loom.RegisterAgent("Writer", second)

	def := workflow.Definition{
		Name:     "pipeline",
		Strategy: workflow.StrategySequential,
		Steps: []workflow.Step{
			{AgentName: "Researcher", Task: "research"},
			{AgentName: "Writer", Task: "write"},
		},
	}

	result, err := loom.Execute(context.Background(), def, "topic")
	require.NoError(t, err)

	assert.Equal(t, workflow.ExecutionCompleted, result.Status)

	// The researcher saw the root task and the writer saw the researcher's
	// output threaded into its own task.
	firstRequests := first.Requests()
	require.Len(t, firstRequests, 1)
	assert.Contains(t, firstRequests[0].Query, "topic")

	secondRequests := second.Requests()
	require.Len(t, secondRequests, 1)
	assert.Contains(t, secondRequests[0].Query, "Mock response to:")

	assert.Contains(t, result.Output, "Mock response to:")
}
