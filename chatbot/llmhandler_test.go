package chatbot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pdfchat/chatbot"
	llmfake "github.com/sevigo/pdfchat/llms/fake"
	"github.com/sevigo/pdfchat/schema"
	retrieverfake "github.com/sevigo/pdfchat/schema/fake"
)

func TestNewLLMHandler_UnknownProvider(t *testing.T) {
	_, err := chatbot.NewLLMHandler(chatbot.LLMConfig{Provider: "anthropic"})
	assert.ErrorIs(t, err, chatbot.ErrUnknownProvider)
}

func TestLLMHandler_QueryBeforeChain(t *testing.T) {
	h, err := chatbot.NewLLMHandler(chatbot.LLMConfig{Provider: chatbot.ProviderOllama})
	require.NoError(t, err)

	_, err = h.Query(context.Background(), "anything")
	assert.ErrorIs(t, err, chatbot.ErrChainNotReady)
}

func TestLLMHandler_ChainLifecycle(t *testing.T) {
	ctx := context.Background()

	fakeLLM := llmfake.NewFakeLLM([]string{"from the documents"})
	h, err := chatbot.NewLLMHandler(
		chatbot.LLMConfig{Provider: chatbot.ProviderOllama, Ollama: chatbot.OllamaConfig{Model: "llama3.2"}},
		chatbot.WithModel(fakeLLM),
	)
	require.NoError(t, err)

	retriever := retrieverfake.NewRetriever()
	retriever.DocsToReturn = []schema.Document{{PageContent: "context text"}}

	_, err = h.CreateQAChain(ctx, retriever)
	require.NoError(t, err)

	result, err := h.Query(ctx, "what does it say?")
	require.NoError(t, err)
	assert.Equal(t, "from the documents", result.Answer)
	assert.Len(t, result.SourceDocuments, 1)
}

func TestLLMHandler_ChainRebuildKeepsHistory(t *testing.T) {
	ctx := context.Background()

	h, err := chatbot.NewLLMHandler(
		chatbot.LLMConfig{Provider: chatbot.ProviderOllama},
		chatbot.WithModel(llmfake.NewFakeLLM([]string{"first answer"})),
	)
	require.NoError(t, err)

	retriever := retrieverfake.NewRetriever()
	retriever.DocsToReturn = []schema.Document{{PageContent: "context text"}}

	_, err = h.CreateQAChain(ctx, retriever)
	require.NoError(t, err)

	_, err = h.Query(ctx, "first question")
	require.NoError(t, err)
	require.Equal(t, 2, h.Memory().Len())

	// Rebuilding the chain, as adding more documents does, must not
	// discard the conversation so far.
	chain, err := h.CreateQAChain(ctx, retriever)
	require.NoError(t, err)

	messages := chain.Memory().Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first question", messages[0].GetTextContent())
	assert.Equal(t, "first answer", messages[1].GetTextContent())
}

func TestLLMHandler_SwitchProviderResetsChain(t *testing.T) {
	ctx := context.Background()

	h, err := chatbot.NewLLMHandler(
		chatbot.LLMConfig{Provider: chatbot.ProviderOllama},
		chatbot.WithModel(llmfake.NewFakeLLM([]string{"answer"})),
	)
	require.NoError(t, err)

	_, err = h.CreateQAChain(ctx, retrieverfake.NewRetriever())
	require.NoError(t, err)
	require.NotNil(t, h.Chain())

	h.Memory().AddUserMessage("hello")
	require.NoError(t, h.SwitchProvider(chatbot.ProviderGemini))
	assert.Nil(t, h.Chain())
	assert.Zero(t, h.Memory().Len())

	assert.ErrorIs(t, h.SwitchProvider("gpt4all"), chatbot.ErrUnknownProvider)
}

func TestLLMHandler_GenerateResponse(t *testing.T) {
	h, err := chatbot.NewLLMHandler(
		chatbot.LLMConfig{Provider: chatbot.ProviderOllama},
		chatbot.WithModel(llmfake.NewFakeLLM([]string{"direct answer"})),
	)
	require.NoError(t, err)

	answer, err := h.GenerateResponse(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "direct answer", answer)
}

func TestLLMHandler_Info(t *testing.T) {
	h, err := chatbot.NewLLMHandler(chatbot.LLMConfig{
		Provider:    "Ollama",
		Temperature: 0.2,
		Ollama:      chatbot.OllamaConfig{Model: "llama3.2"},
	})
	require.NoError(t, err)

	info := h.Info()
	assert.Equal(t, "ollama", info.Provider)
	assert.Equal(t, "llama3.2", info.Model)
	assert.InDelta(t, 0.2, info.Temperature, 0.001)
}
