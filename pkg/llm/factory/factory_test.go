package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProviderOpenAIKeyFormat(t *testing.T) {
	_, err := NewLLMProvider("openai", "gpt-4o-mini", "", "not-a-key")
	assert.Error(t, err)

	provider, err := NewLLMProvider("openai", "gpt-4o-mini", "", "sk-0123456789abcdef0123")
	require.NoError(t, err)
	assert.NotNil(t, provider)
}

func TestNewLLMProviderOllamaNoKeyNeeded(t *testing.T) {
	provider, err := NewLLMProvider("ollama", "gemma:2b", "", "")
	require.NoError(t, err)
	assert.NotNil(t, provider)
}

func TestNewLLMProviderUnsupported(t *testing.T) {
	_, err := NewLLMProvider("bard", "x", "", "")
	assert.Error(t, err)
}
