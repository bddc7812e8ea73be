package factory

import (
	"context"
	"fmt"

	"oral-coach-be/pkg/llm"
	"oral-coach-be/pkg/llm/gemini"
	"oral-coach-be/pkg/llm/huggingface"
	"oral-coach-be/pkg/llm/ollama"
	"oral-coach-be/pkg/llm/openai"
)

func NewLLMProvider(ctx context.Context, providerType, apiKey, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "gemini":
		return gemini.NewGeminiProvider(ctx, apiKey, modelName)
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
