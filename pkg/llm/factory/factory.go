package factory

import (
	"fmt"

	"lecture-rag-be/pkg/llm"
	"lecture-rag-be/pkg/llm/huggingface"
	"lecture-rag-be/pkg/llm/ollama"
	"lecture-rag-be/pkg/llm/openai"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	ApiKey   string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return openai.NewOpenAIProvider(cfg.ApiKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return ollama.NewOllamaProvider(baseURL, model), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(cfg.ApiKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
