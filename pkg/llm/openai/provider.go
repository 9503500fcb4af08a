package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"lecture-rag-be/pkg/llm"
)

const DefaultModel = "gpt-4o-mini"

type OpenAIProvider struct {
	model  string
	client *openai.Client
}

var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider builds a chat provider. baseURL is optional and points the
// client at an OpenAI compatible endpoint.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIProvider{
		model:  model,
		client: openai.NewClientWithConfig(config),
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.NewOptions(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	rsp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return rsp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
