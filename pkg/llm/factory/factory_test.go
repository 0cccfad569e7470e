package factory

import (
	"context"
	"testing"

	"projectx-be/pkg/llm/gemini"
	"projectx-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewLLMProvider(ctx, Settings{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	_, err = NewLLMProvider(ctx, Settings{Provider: "gemini"})
	assert.Error(t, err, "gemini needs an API key")

	_, err = NewLLMProvider(ctx, Settings{Provider: "openai"})
	assert.EqualError(t, err, "unsupported LLM provider: openai")
}

func TestModelDefaultsPerProvider(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{"gemini default", Settings{Provider: "gemini"}, gemini.DefaultModel},
		{"empty provider is gemini", Settings{}, gemini.DefaultModel},
		{"ollama default", Settings{Provider: "ollama"}, ollama.DefaultModel},
		{"explicit model wins", Settings{Provider: "ollama", Model: "mistral"}, "mistral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModelFor(tt.settings))
		})
	}

	p, err := NewLLMProvider(context.Background(), Settings{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, ollama.DefaultModel, p.(*ollama.OllamaProvider).ModelName, "no gemini model is sent to ollama")
}
