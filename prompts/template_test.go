package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptTemplate_Format(t *testing.T) {
	tmpl := NewPromptTemplate("Context:\n{{.context}}\n\nQuestion: {{.question}}")

	got := tmpl.Format(map[string]string{
		"context":  "The sky is blue.",
		"question": "What color is the sky?",
	})

	assert.Equal(t, "Context:\nThe sky is blue.\n\nQuestion: What color is the sky?", got)
}

func TestPromptTemplate_FormatLeavesUnknownPlaceholders(t *testing.T) {
	tmpl := NewPromptTemplate("{{.known}} and {{.unknown}}")

	got := tmpl.Format(map[string]string{"known": "value"})

	assert.Equal(t, "value and {{.unknown}}", got)
}

func TestPromptTemplate_Variables(t *testing.T) {
	assert.Equal(t, []string{"context", "history", "question"}, DocumentQAPrompt.Variables())
}

func TestDocumentQAPrompt_ContainsInstructions(t *testing.T) {
	rendered := DocumentQAPrompt.Format(map[string]string{
		"context":  "ctx",
		"history":  NoHistoryPlaceholder,
		"question": "q",
	})

	assert.Contains(t, rendered, "ONLY answers based on the provided context")
	assert.Contains(t, rendered, "I don't have that information in the provided documents")
	assert.NotContains(t, rendered, "{{.")
}
