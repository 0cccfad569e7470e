package factory

import (
	"context"
	"fmt"

	"projectx-be/pkg/llm"
	"projectx-be/pkg/llm/gemini"
	"projectx-be/pkg/llm/ollama"
)

type Settings struct {
	Provider      string // "gemini" | "ollama"
	Model         string // empty picks the provider's default
	GeminiAPIKey  string
	OllamaBaseURL string
}

// ModelFor is the model a provider built from s will ask for.
func ModelFor(s Settings) string {
	if s.Model != "" {
		return s.Model
	}
	if s.Provider == "ollama" {
		return ollama.DefaultModel
	}
	return gemini.DefaultModel
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "gemini", "":
		return gemini.NewGeminiProvider(ctx, s.GeminiAPIKey, ModelFor(s))
	case "ollama":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, ModelFor(s)), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
