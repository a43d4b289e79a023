package prompts

// DocumentQAPrompt is the prompt used by the conversational retrieval chain.
// It instructs the model to answer strictly from the retrieved document
// context and to admit when the context does not contain the answer.
var DocumentQAPrompt = NewPromptTemplate(
	`You are a helpful AI assistant that ONLY answers based on the provided context.

CONTEXT FROM DOCUMENTS:
{{.context}}

CONVERSATION SO FAR:
{{.history}}

USER QUESTION: {{.question}}

INSTRUCTIONS:
- Answer ONLY using information from the CONTEXT above
- Be specific and quote relevant details from the context
- If the context mentions a class name, topic, or subject, state it clearly
- If the answer is not in the context, say "I don't have that information in the provided documents"

ANSWER: `)

// NoHistoryPlaceholder is substituted for the history variable on the first
// turn of a conversation.
const NoHistoryPlaceholder = "(no previous conversation)"
