package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"lecture-rag-be/pkg/embedding"
)

const DefaultModel = string(openai.SmallEmbedding3)

type OpenAIProvider struct {
	model  string
	client *openai.Client
}

// NewOpenAIProvider builds an embedding provider. baseURL is optional.
func NewOpenAIProvider(apiKey, baseURL, model string) embedding.EmbeddingProvider {
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

// Generate ignores taskType; OpenAI embeds documents and queries the same way.
func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	rsp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return embedding.NewEmbeddingResponse(rsp.Data[0].Embedding), nil
}
