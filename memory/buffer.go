// Package memory keeps conversational state for retrieval chains.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sevigo/pdfchat/schema"
)

const defaultMaxMessages = 20

// ConversationBuffer stores the running exchange between the user and
// the assistant. When the buffer exceeds its limit the oldest messages
// are dropped pairwise so the window always starts with a user turn.
type ConversationBuffer struct {
	mu          sync.Mutex
	messages    []schema.MessageContent
	maxMessages int
}

// Option configures a ConversationBuffer.
type Option func(*ConversationBuffer)

// WithMaxMessages caps how many messages the buffer retains.
func WithMaxMessages(n int) Option {
	return func(b *ConversationBuffer) {
		if n > 0 {
			b.maxMessages = n
		}
	}
}

// NewConversationBuffer creates an empty buffer.
func NewConversationBuffer(opts ...Option) *ConversationBuffer {
	b := &ConversationBuffer{
		maxMessages: defaultMaxMessages,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddUserMessage appends a human turn.
func (b *ConversationBuffer) AddUserMessage(text string) {
	b.add(schema.NewHumanMessage(text))
}

// AddAIMessage appends an assistant turn.
func (b *ConversationBuffer) AddAIMessage(text string) {
	b.add(schema.NewAIMessage(text))
}

func (b *ConversationBuffer) add(msg schema.MessageContent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, msg)
	for len(b.messages) > b.maxMessages {
		drop := 2
		if len(b.messages) < drop {
			drop = len(b.messages)
		}
		b.messages = b.messages[drop:]
	}
}

// Messages returns a copy of the buffered messages in order.
func (b *ConversationBuffer) Messages() []schema.MessageContent {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]schema.MessageContent(nil), b.messages...)
}

// Len returns the number of buffered messages.
func (b *ConversationBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.messages)
}

// Clear discards all buffered messages.
func (b *ConversationBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = nil
}

// FormatHistory renders the buffer as "Human: ..." / "AI: ..." lines
// for prompt stuffing. An empty buffer renders as the placeholder.
func (b *ConversationBuffer) FormatHistory(placeholder string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) == 0 {
		return placeholder
	}

	var sb strings.Builder
	for i, msg := range b.messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.GetTextContent()))
	}
	return sb.String()
}

func roleLabel(role schema.ChatMessageType) string {
	switch role {
	case schema.ChatMessageTypeHuman:
		return "Human"
	case schema.ChatMessageTypeAI:
		return "AI"
	default:
		return string(role)
	}
}
