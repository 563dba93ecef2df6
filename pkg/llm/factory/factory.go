package factory

import (
	"fmt"

	"carepathiq-be/pkg/llm"
	"carepathiq-be/pkg/llm/huggingface"
	"carepathiq-be/pkg/llm/ollama"
	"carepathiq-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		if !openai.ValidKeyFormat(apiKey) {
			return nil, fmt.Errorf("invalid OpenAI API key format (expects sk- prefix)")
		}
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
