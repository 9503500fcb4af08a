package prompt

import (
	"strings"

	"lecture-rag-be/pkg/llm"
)

const (
	TeachingAssistantPersona = "You are a helpful teaching assistant."

	// InsufficientContextAnswer is the fixed reply the model must give when the
	// lecture context does not cover the question.
	InsufficientContextAnswer = "I don't have enough information to answer that question based on the provided lecture content."
)

// GroundedBuilder builds the message list that restricts the model to lecture context.
type GroundedBuilder struct {
	question string
	contexts []string
}

func NewGroundedBuilder(question string, contexts []string) *GroundedBuilder {
	return &GroundedBuilder{
		question: question,
		contexts: contexts,
	}
}

func (b *GroundedBuilder) Build() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.systemRules()},
		{Role: llm.RoleUser, Content: b.contextMessage()},
		{Role: llm.RoleUser, Content: b.questionMessage()},
	}
}

func (b *GroundedBuilder) systemRules() string {
	var prompt strings.Builder

	prompt.WriteString("You are an AI assistant that answers questions based ONLY on the provided lecture content.\n")
	prompt.WriteString("Your knowledge is limited to the information given in the context. Follow these rules strictly:\n")
	prompt.WriteString("1. Only use information explicitly stated in the provided context.\n")
	prompt.WriteString("2. If the context does not contain relevant information to answer the question, say \"")
	prompt.WriteString(InsufficientContextAnswer)
	prompt.WriteString("\"\n")
	prompt.WriteString("3. Do not use any external knowledge or make assumptions beyond what is in the context.\n")
	prompt.WriteString("4. If asked about topics not covered in the context, state that the lecture content does not cover that topic.\n")
	prompt.WriteString("5. Be precise and concise, citing specific parts of the context when possible.\n")
	prompt.WriteString("6. If the question is ambiguous given the context, ask for clarification.\n")
	prompt.WriteString("7. Never claim to know more than what is provided in the context.\n")
	prompt.WriteString("8. If the context contains conflicting information, point out the inconsistency without resolving it.\n")
	prompt.WriteString("Your role is to relay the information from the lecture content, not to add knowledge or opinions.")

	return prompt.String()
}

func (b *GroundedBuilder) contextMessage() string {
	var prompt strings.Builder

	prompt.WriteString("Context from lecture content:\n")
	prompt.WriteString(strings.Join(b.contexts, "\n"))

	return prompt.String()
}

func (b *GroundedBuilder) questionMessage() string {
	var prompt strings.Builder

	prompt.WriteString("Question: ")
	prompt.WriteString(b.question)
	prompt.WriteString("\nAnswer only based on the above context, following the rules provided.")

	return prompt.String()
}

// Ungrounded builds the plain assistant conversation used when no lecture content matched.
func Ungrounded(question string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: TeachingAssistantPersona},
		{Role: llm.RoleUser, Content: question},
	}
}
