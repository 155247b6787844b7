package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	user := NewUserMessage("hello")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.Timestamp.IsZero())

	assistant := NewAssistantMessage("hi")
	assert.Equal(t, RoleAssistant, assistant.Role)

	toolMsg := NewToolMessage("call-1", "42")
	assert.Equal(t, RoleTool, toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)

	assert.NotEqual(t, user.ID, assistant.ID)
}

func TestConversationAppendPreservesOrder(t *testing.T) {
	conv := NewConversation("conv-1")

	require.NoError(t, conv.Append(NewUserMessage("first")))
	require.NoError(t, conv.Append(NewAssistantMessage("second")))
	require.NoError(t, conv.Append(NewUserMessage("third")))

	messages := conv.Tail(0)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)
}

func TestConversationTailWindow(t *testing.T) {
	conv := NewConversation("conv-1")

	for _, content := range []string{"a", "b", "c", "d"} {
		require.NoError(t, conv.Append(NewUserMessage(content)))
	}

	tail := conv.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "c", tail[0].Content)
	assert.Equal(t, "d", tail[1].Content)

	// A copy, not a view.
	tail[0].Content = "mutated"
	assert.Equal(t, "c", conv.Tail(0)[2].Content)
}

func TestConversationArchiveRefusesAppends(t *testing.T) {
	conv := NewConversation("conv-1")
	require.NoError(t, conv.Append(NewUserMessage("kept")))

	conv.Archive()
	conv.Archive() // idempotent

	err := conv.Append(NewUserMessage("dropped"))
	assert.ErrorIs(t, err, ErrConversationArchived)
	assert.Equal(t, 1, conv.Len())
	assert.Equal(t, ConversationArchived, conv.Status)
}

func TestConversationConcurrentAppends(t *testing.T) {
	conv := NewConversation("conv-1")

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_ = conv.Append(NewUserMessage("msg"))
		}()
	}

	wg.Wait()
	assert.Equal(t, 50, conv.Len())
}

func TestConversationCloneIsIndependent(t *testing.T) {
	conv := NewConversation("conv-1")
	require.NoError(t, conv.Append(NewUserMessage("original")))

	clone := conv.Clone()
	require.NoError(t, clone.Append(NewUserMessage("clone only")))

	assert.Equal(t, 1, conv.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestNewActionRecord(t *testing.T) {
	rec := NewActionRecord("conv-1", ActionToolCall)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "conv-1", rec.ConversationID)
	assert.Equal(t, ActionToolCall, rec.Kind)
	assert.False(t, rec.Created.IsZero())
}

func TestPersistenceError(t *testing.T) {
	inner := assert.AnError
	err := NewPersistenceError("append", inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "append")
}
