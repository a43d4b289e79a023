package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pdfchat/schema"
)

func TestConversationBuffer_AddAndFormat(t *testing.T) {
	buf := NewConversationBuffer()

	buf.AddUserMessage("What is chapter 2 about?")
	buf.AddAIMessage("Chapter 2 covers error handling.")

	history := buf.FormatHistory("(empty)")
	assert.Equal(t, "Human: What is chapter 2 about?\nAI: Chapter 2 covers error handling.", history)
}

func TestConversationBuffer_EmptyPlaceholder(t *testing.T) {
	buf := NewConversationBuffer()
	assert.Equal(t, "(empty)", buf.FormatHistory("(empty)"))
}

func TestConversationBuffer_Clear(t *testing.T) {
	buf := NewConversationBuffer()
	buf.AddUserMessage("hello")
	require.Equal(t, 1, buf.Len())

	buf.Clear()
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Messages())
}

func TestConversationBuffer_WindowDropsOldestPair(t *testing.T) {
	buf := NewConversationBuffer(WithMaxMessages(4))

	buf.AddUserMessage("q1")
	buf.AddAIMessage("a1")
	buf.AddUserMessage("q2")
	buf.AddAIMessage("a2")
	buf.AddUserMessage("q3")

	msgs := buf.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.ChatMessageTypeHuman, msgs[0].Role)
	assert.Equal(t, "q2", msgs[0].GetTextContent())
	assert.Equal(t, "q3", msgs[2].GetTextContent())
}

func TestConversationBuffer_MessagesReturnsCopy(t *testing.T) {
	buf := NewConversationBuffer()
	buf.AddUserMessage("original")

	msgs := buf.Messages()
	msgs[0] = schema.NewHumanMessage("tampered")

	assert.Equal(t, "original", buf.Messages()[0].GetTextContent())
}
