package caselaw

import (
	"context"

	"briefdraft-backend/models"
)

// DemoClient answers without any external call. It always returns a single
// placeholder result so the pipeline can run without credentials.
type DemoClient struct{}

func (DemoClient) Search(ctx context.Context, question, area string, k int) ([]models.CaseLawResult, error) {
	label := area
	if label == "" {
		label = "geral"
	}
	return []models.CaseLawResult{{
		Title:   "Exemplo jurisprudencial (" + label + ")",
		URL:     "https://stj.jus.br/",
		Snippet: "Simulação de ementa — Tavily API não configurado.",
	}}, nil
}
