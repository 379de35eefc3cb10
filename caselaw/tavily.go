package caselaw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"briefdraft-backend/models"
)

// TavilyClient calls the Tavily search REST API
type TavilyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTavilyClient creates a client for baseURL (e.g. https://api.tavily.com)
func NewTavilyClient(baseURL, apiKey string) *TavilyClient {
	return &TavilyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (c *TavilyClient) Search(ctx context.Context, question, area string, k int) ([]models.CaseLawResult, error) {
	reqBody := tavilyRequest{
		Query:         BuildQuery(question, area),
		MaxResults:    k,
		IncludeAnswer: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tavily error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]models.CaseLawResult, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		if k > 0 && len(results) == k {
			break
		}
		results = append(results, models.CaseLawResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: truncateRunes(r.Content, MaxSnippetRunes),
		})
	}
	return results, nil
}
