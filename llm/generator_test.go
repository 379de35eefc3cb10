package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"briefdraft-backend/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoGeneratorIsDeterministic(t *testing.T) {
	p := Prompt{System: "sys", User: "Tipo de peça: Contestação", Temperature: DraftTemperature}

	a, err := DemoGenerator{}.Generate(context.Background(), p)
	require.NoError(t, err)
	b, err := DemoGenerator{}.Generate(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "(DEMO)\n\nTipo de peça: Contestação", a)
	assert.Equal(t, a, b)
}

func TestNewSelection(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, &config.Config{})
	require.NoError(t, err)
	assert.True(t, IsDemo(g))

	g, err = New(ctx, &config.Config{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)
	assert.Equal(t, "gpt-4o", g.Model())
	assert.False(t, IsDemo(g))

	_, err = New(ctx, &config.Config{LLMProvider: ProviderGemini})
	assert.Error(t, err)

	_, err = New(ctx, &config.Config{LLMProvider: "claude"})
	assert.Error(t, err)
}

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeOpenAI(t *testing.T, handler func(req chatRequest) (int, any)) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIGeneratorWithConfig(cfg, "gpt-4o")
}

func TestOpenAIGenerate(t *testing.T) {
	var got chatRequest
	g := fakeOpenAI(t, func(req chatRequest) (int, any) {
		got = req
		return http.StatusOK, map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": "\n  EXCELENTÍSSIMO SENHOR JUIZ  \n"},
			}},
		}
	})

	out, err := g.Generate(context.Background(), Prompt{System: "sys", User: "usr", Temperature: RefineTemperature})
	require.NoError(t, err)
	assert.Equal(t, "EXCELENTÍSSIMO SENHOR JUIZ", out)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestOpenAIGenerateFailures(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		g := fakeOpenAI(t, func(chatRequest) (int, any) {
			return http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "rate limited", "type": "requests"},
			}
		})
		_, err := g.Generate(context.Background(), Prompt{User: "u"})
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("no choices", func(t *testing.T) {
		g := fakeOpenAI(t, func(chatRequest) (int, any) {
			return http.StatusOK, map[string]any{"id": "x", "choices": []any{}}
		})
		_, err := g.Generate(context.Background(), Prompt{User: "u"})
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})
}
