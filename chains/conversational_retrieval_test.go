package chains_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pdfchat/chains"
	"github.com/sevigo/pdfchat/llms/fake"
	"github.com/sevigo/pdfchat/prompts"
	"github.com/sevigo/pdfchat/schema"
	fakeretriever "github.com/sevigo/pdfchat/schema/fake"
)

func TestConversationalRetrieval_Call(t *testing.T) {
	ctx := context.Background()

	retrievedDocs := []schema.Document{
		{PageContent: "The course is called Introduction to Databases.", Metadata: map[string]any{"source": "syllabus.pdf", "page": 1}},
		{PageContent: "Lectures take place on Mondays.", Metadata: map[string]any{"source": "syllabus.pdf", "page": 2}},
	}

	fakeLLM := fake.NewFakeLLM([]string{"The course is Introduction to Databases."})
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = retrievedDocs

	chain, err := chains.NewConversationalRetrieval(retriever, fakeLLM)
	require.NoError(t, err)

	result, err := chain.Call(ctx, "What is the course called?")
	require.NoError(t, err)
	assert.Equal(t, "The course is Introduction to Databases.", result.Answer)
	assert.Equal(t, retrievedDocs, result.SourceDocuments)

	prompt, ok := fakeLLM.LastPrompt()
	require.True(t, ok)
	assert.Contains(t, prompt, "The course is called Introduction to Databases.")
	assert.Contains(t, prompt, "Lectures take place on Mondays.")
	assert.Contains(t, prompt, "\n\n---\n\n")
	assert.Contains(t, prompt, "USER QUESTION: What is the course called?")
	assert.Contains(t, prompt, prompts.NoHistoryPlaceholder)
}

func TestConversationalRetrieval_CarriesHistory(t *testing.T) {
	ctx := context.Background()

	fakeLLM := fake.NewFakeLLM([]string{"First answer.", "Second answer."})
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = []schema.Document{{PageContent: "some context"}}

	chain, err := chains.NewConversationalRetrieval(retriever, fakeLLM)
	require.NoError(t, err)

	_, err = chain.Call(ctx, "First question?")
	require.NoError(t, err)

	_, err = chain.Call(ctx, "Second question?")
	require.NoError(t, err)

	prompt, ok := fakeLLM.LastPrompt()
	require.True(t, ok)
	assert.Contains(t, prompt, "Human: First question?")
	assert.Contains(t, prompt, "AI: First answer.")
	assert.NotContains(t, prompt, prompts.NoHistoryPlaceholder)
}

func TestConversationalRetrieval_NoDocuments(t *testing.T) {
	ctx := context.Background()

	fakeLLM := fake.NewFakeLLM([]string{"I don't have that information in the provided documents"})
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = []schema.Document{}

	chain, err := chains.NewConversationalRetrieval(retriever, fakeLLM)
	require.NoError(t, err)

	result, err := chain.Call(ctx, "Anything at all?")
	require.NoError(t, err)
	assert.Empty(t, result.SourceDocuments)

	prompt, ok := fakeLLM.LastPrompt()
	require.True(t, ok)
	assert.Contains(t, prompt, "(no matching documents found)")
}

func TestConversationalRetrieval_RetrieverError(t *testing.T) {
	ctx := context.Background()

	retrievalErr := errors.New("qdrant unreachable")
	fakeLLM := fake.NewFakeLLM(nil)
	retriever := fakeretriever.NewRetriever()
	retriever.ErrToReturn = retrievalErr

	chain, err := chains.NewConversationalRetrieval(retriever, fakeLLM)
	require.NoError(t, err)

	_, err = chain.Call(ctx, "Any question.")
	require.Error(t, err)
	assert.ErrorIs(t, err, retrievalErr)
	assert.Equal(t, 0, fakeLLM.GetCallCount())
}

func TestConversationalRetrieval_EmptyQuestion(t *testing.T) {
	chain, err := chains.NewConversationalRetrieval(fakeretriever.NewRetriever(), fake.NewFakeLLM(nil))
	require.NoError(t, err)

	_, err = chain.Call(context.Background(), "   ")
	assert.ErrorIs(t, err, chains.ErrEmptyQuestion)
}

func TestConversationalRetrieval_ClearHistory(t *testing.T) {
	ctx := context.Background()

	fakeLLM := fake.NewFakeLLM([]string{"answer one", "answer two"})
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = []schema.Document{{PageContent: "ctx"}}

	chain, err := chains.NewConversationalRetrieval(retriever, fakeLLM)
	require.NoError(t, err)

	_, err = chain.Call(ctx, "remembered?")
	require.NoError(t, err)
	require.Equal(t, 2, chain.Memory().Len())

	chain.ClearHistory()
	assert.Equal(t, 0, chain.Memory().Len())

	_, err = chain.Call(ctx, "fresh start?")
	require.NoError(t, err)

	prompt, ok := fakeLLM.LastPrompt()
	require.True(t, ok)
	assert.True(t, strings.Contains(prompt, prompts.NoHistoryPlaceholder))
	assert.NotContains(t, prompt, "remembered?")
}

func TestNewConversationalRetrieval_Validation(t *testing.T) {
	_, err := chains.NewConversationalRetrieval(nil, fake.NewFakeLLM(nil))
	assert.ErrorIs(t, err, chains.ErrMissingRetriever)

	_, err = chains.NewConversationalRetrieval(fakeretriever.NewRetriever(), nil)
	assert.ErrorIs(t, err, chains.ErrMissingModel)
}
