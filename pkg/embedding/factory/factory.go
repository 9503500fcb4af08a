package factory

import (
	"fmt"

	"lecture-rag-be/pkg/embedding"
	"lecture-rag-be/pkg/embedding/openai"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	ApiKey   string
}

func NewEmbeddingProvider(cfg Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an api key")
		}
		return openai.NewOpenAIProvider(cfg.ApiKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		return embedding.NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "gemini":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an api key")
		}
		return embedding.NewGeminiProvider(cfg.ApiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
