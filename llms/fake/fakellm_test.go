package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeLLM_CyclesResponses(t *testing.T) {
	llm := NewFakeLLM([]string{"first", "second"})
	ctx := context.Background()

	for _, want := range []string{"first", "second", "first"} {
		got, err := llm.Call(ctx, "question")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, 3, llm.GetCallCount())
}

func TestFakeLLM_RecordsPrompts(t *testing.T) {
	llm := NewFakeLLM([]string{"answer"})

	_, err := llm.Call(context.Background(), "what is up?")
	require.NoError(t, err)

	prompt, ok := llm.LastPrompt()
	require.True(t, ok)
	assert.Equal(t, "what is up?", prompt)
}

func TestFakeLLM_NoResponses(t *testing.T) {
	llm := NewFakeLLM(nil)

	_, err := llm.Call(context.Background(), "anything")
	assert.Error(t, err)
}

func TestFakeLLM_FailWith(t *testing.T) {
	llm := NewFakeLLM([]string{"answer"})
	boom := errors.New("boom")
	llm.FailWith(boom)

	_, err := llm.Call(context.Background(), "anything")
	assert.ErrorIs(t, err, boom)
}

func TestFakeLLM_Reset(t *testing.T) {
	llm := NewFakeLLM([]string{"a", "b"})
	ctx := context.Background()

	_, err := llm.Call(ctx, "q1")
	require.NoError(t, err)

	llm.Reset()

	got, err := llm.Call(ctx, "q2")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
	assert.Equal(t, 1, llm.GetCallCount())
}
