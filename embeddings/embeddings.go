package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"

	"briefdraft-backend/config"
)

// Embedder converts texts to vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ErrNoProvider is returned by New when no embedding provider is configured
var ErrNoProvider = errors.New("no embedding provider configured")

// New selects the embedder from configuration. An explicit EMBEDDING_PROVIDER
// wins; otherwise the first provider with a credential is used.
func New(ctx context.Context, cfg *config.Config) (Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		switch {
		case cfg.OpenAIAPIKey != "":
			provider = ProviderOpenAI
		case cfg.GeminiAPIKey != "":
			provider = ProviderGemini
		default:
			return nil, ErrNoProvider
		}
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddings), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider selected but GEMINI_API_KEY not set")
		}
		return NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbeddings)
	case ProviderOllama:
		return NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaEmbeddings)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", provider)
	}
}

// Normalize scales v to unit L2 norm in place. Zero vectors are left untouched.
func Normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

func checkCount(provider string, want, got int) error {
	if want != got {
		return fmt.Errorf("%s returned %d embeddings for %d inputs", provider, got, want)
	}
	return nil
}
