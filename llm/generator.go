package llm

import (
	"context"
	"errors"
	"fmt"

	"briefdraft-backend/config"
)

// ErrGenerationFailed wraps every provider failure
var ErrGenerationFailed = errors.New("generation failed")

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderDemo   = "demo"
)

const (
	DraftTemperature  = 0.2
	RefineTemperature = 0.3
)

// Prompt is one system+user exchange
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// Generator produces a completion for a prompt
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	// Model names the model for health reporting
	Model() string
}

// New picks the generator from configuration. With no credentials the
// demo generator is returned.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	provider := cfg.LLMProvider
	if provider == "" {
		switch {
		case cfg.OpenAIAPIKey != "":
			provider = ProviderOpenAI
		case cfg.GeminiAPIKey != "":
			provider = ProviderGemini
		default:
			provider = ProviderDemo
		}
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider selected but GEMINI_API_KEY not set")
		}
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderDemo:
		return DemoGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// IsDemo reports whether g echoes prompts instead of calling a model
func IsDemo(g Generator) bool {
	_, ok := g.(DemoGenerator)
	return ok
}

func failed(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGenerationFailed, provider, err)
}
