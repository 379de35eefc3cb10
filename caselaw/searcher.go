package caselaw

import (
	"context"
	"strings"

	"briefdraft-backend/config"
	"briefdraft-backend/models"
)

// Searcher finds case-law on the web, restricted to court and legislative sites
type Searcher interface {
	Search(ctx context.Context, question, area string, k int) ([]models.CaseLawResult, error)
}

// MaxSnippetRunes caps the snippet of every result
const MaxSnippetRunes = 600

// CourtDomains is the fixed allow-list of judicial and legislative sites
var CourtDomains = []string{
	"stf.jus.br",
	"stj.jus.br",
	"tst.jus.br",
	"trf1.jus.br",
	"trf2.jus.br",
	"trf3.jus.br",
	"trf4.jus.br",
	"trf5.jus.br",
	"tjgo.jus.br",
	"tjdf.jus.br",
	"tjmg.jus.br",
	"tjsp.jus.br",
	"tjrj.jus.br",
	"trt18.jus.br",
	"trt3.jus.br",
	"trt2.jus.br",
	"planalto.gov.br",
	"lexml.gov.br",
}

// AreaFilters holds the keyword disjunction appended for each practice area
var AreaFilters = map[string]string{
	"civil":                    "responsabilidade civil OR contrato OR obrigação OR indenização",
	"consumidor":               "CDC OR relação de consumo OR fornecedor OR vício OR defeito OR cláusula abusiva",
	"empresarial":              "sociedade OR recuperação judicial OR falência OR título de crédito OR contrato social",
	"trabalho":                 "relação de emprego OR vínculo OR justa causa OR CLT OR verbas rescisórias OR estabilidade",
	"penal":                    "crime OR dolo OR culpa OR condenação OR absolvição OR tipicidade OR atipicidade",
	"remedios_constitucionais": "mandado de segurança OR habeas corpus OR habeas data OR injunção",
}

// BuildQuery composes the provider query. The area is lowercased but not
// trimmed, so " penal" gets no filter.
func BuildQuery(question, area string) string {
	filter := AreaFilters[strings.ToLower(area)]

	sites := make([]string, len(CourtDomains))
	for i, d := range CourtDomains {
		sites[i] = "site:" + d
	}

	return question + " " + filter + " (" + strings.Join(sites, " OR ") + ") jurisprudência aplicável"
}

// New returns the Tavily client when a key is configured, otherwise the demo client
func New(cfg *config.Config) Searcher {
	if cfg.TavilyAPIKey == "" {
		return DemoClient{}
	}
	return NewTavilyClient(cfg.TavilyURL, cfg.TavilyAPIKey)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
