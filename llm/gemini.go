package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerator calls a Gemini generative model
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	// GenerativeModel carries per-call settings, so build one per request
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(p.Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", failed("gemini", err)
	}
	if len(resp.Candidates) == 0 {
		return "", failed("gemini", errors.New("no candidates returned"))
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		// first candidate with content wins
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", failed("gemini", errors.New("candidate has no text parts"))
	}
	return strings.TrimSpace(text.String()), nil
}
