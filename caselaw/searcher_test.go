package caselaw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"briefdraft-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("dano moral atraso", "consumidor")

	assert.True(t, strings.HasPrefix(q, "dano moral atraso CDC OR relação de consumo"))
	assert.True(t, strings.HasSuffix(q, ") jurisprudência aplicável"))
	assert.Contains(t, q, "(site:stf.jus.br OR site:stj.jus.br OR ")
	assert.Contains(t, q, "site:lexml.gov.br)")
	assert.Equal(t, len(CourtDomains), strings.Count(q, "site:"))
}

func TestBuildQueryAreaLookup(t *testing.T) {
	tests := []struct {
		area   string
		filter string
	}{
		{"penal", AreaFilters["penal"]},
		{"PENAL", AreaFilters["penal"]},
		{" penal", ""},
		{"", ""},
		{"tributario", ""},
	}

	for _, tt := range tests {
		t.Run(tt.area, func(t *testing.T) {
			q := BuildQuery("pergunta", tt.area)
			assert.True(t, strings.HasPrefix(q, "pergunta "+tt.filter+" (site:"), q)
		})
	}
}

func TestDemoClient(t *testing.T) {
	res, err := DemoClient{}.Search(context.Background(), "q", "trabalho", 7)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Exemplo jurisprudencial (trabalho)", res[0].Title)
	assert.Equal(t, "https://stj.jus.br/", res[0].URL)
	assert.Equal(t, "Simulação de ementa — Tavily API não configurado.", res[0].Snippet)

	res, err = DemoClient{}.Search(context.Background(), "q", "", 7)
	require.NoError(t, err)
	assert.Equal(t, "Exemplo jurisprudencial (geral)", res[0].Title)
}

func TestNewSelectsClient(t *testing.T) {
	assert.IsType(t, DemoClient{}, New(&config.Config{}))
	assert.IsType(t, &TavilyClient{}, New(&config.Config{TavilyAPIKey: "tvly-x", TavilyURL: "http://localhost"}))
}

func TestTavilySearch(t *testing.T) {
	var got tavilyRequest
	long := strings.Repeat("ementa ", 200)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		var results []map[string]string
		for i := 0; i < 5; i++ {
			results = append(results, map[string]string{
				"title":   fmt.Sprintf("Acórdão %d", i),
				"url":     fmt.Sprintf("https://stj.jus.br/%d", i),
				"content": long,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()

	c := NewTavilyClient(srv.URL+"/", "tvly-key")
	res, err := c.Search(context.Background(), "atraso na entrega", "consumidor", 3)
	require.NoError(t, err)

	assert.Equal(t, BuildQuery("atraso na entrega", "consumidor"), got.Query)
	assert.Equal(t, 3, got.MaxResults)
	assert.False(t, got.IncludeAnswer)

	require.Len(t, res, 3)
	assert.Equal(t, "Acórdão 0", res[0].Title)
	assert.Equal(t, "https://stj.jus.br/0", res[0].URL)
	assert.Equal(t, MaxSnippetRunes, utf8.RuneCountInString(res[0].Snippet))
}

func TestTavilySnippetCutIsRuneSafe(t *testing.T) {
	content := strings.Repeat("ç", 700)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"title": "t", "url": "u", "content": content}},
		})
	}))
	defer srv.Close()

	res, err := NewTavilyClient(srv.URL, "k").Search(context.Background(), "q", "", 7)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, utf8.ValidString(res[0].Snippet))
	assert.Equal(t, strings.Repeat("ç", 600), res[0].Snippet)
}

func TestTavilyErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewTavilyClient(srv.URL, "bad").Search(context.Background(), "q", "", 7)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		_, err := NewTavilyClient(srv.URL, "k").Search(context.Background(), "q", "", 7)
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := NewTavilyClient("http://127.0.0.1:1", "k").Search(context.Background(), "q", "", 7)
		assert.Error(t, err)
	})
}
