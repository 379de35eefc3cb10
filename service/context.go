package service

import (
	"fmt"
	"strings"

	"briefdraft-backend/models"
	"briefdraft-backend/prompts"
)

// DefaultRelief is used when a request names no requested relief
const DefaultRelief = "a) Citação da parte ré; b) Procedência; c) Custas e honorários."

// NoContext fills the context slot when nothing was retrieved
const NoContext = "—"

type contextSection struct {
	category models.Category
	header   string
	budget   int
}

// assembly order and per-item rune budgets
var contextSections = []contextSection{
	{models.CategoryOfficeTemplate, "=== MODELOS DO ESCRITÓRIO ===", 800},
	{models.CategoryGeneratedBrief, "=== PEÇAS ANTERIORES ===", 800},
	{models.CategoryClientDocument, "=== DOCUMENTOS DO CLIENTE ===", 700},
	{models.CategoryCaseLaw, "=== JURIS (BASE INTERNA) ===", 600},
}

const externalHeader = "=== JURISPRUDÊNCIA/TEXTOS EXTERNOS (Tavily) ==="

// AssembleContext renders retrieved documents and external case-law into
// the context block of the drafting prompt.
func AssembleContext(similar map[models.Category][]models.RetrievalResult, caseLaw []models.CaseLawResult) string {
	var blocks []string

	for _, sec := range contextSections {
		docs := similar[sec.category]
		if len(docs) == 0 {
			continue
		}
		items := make([]string, len(docs))
		for i, d := range docs {
			items[i] = "- " + truncate(d.Text, sec.budget)
		}
		blocks = append(blocks, sec.header+"\n"+strings.Join(items, "\n\n"))
	}

	if len(caseLaw) > 0 {
		items := make([]string, len(caseLaw))
		for i, j := range caseLaw {
			items[i] = fmt.Sprintf("- %s — %s\n  %s", j.Title, j.URL, j.Snippet)
		}
		blocks = append(blocks, externalHeader+"\n"+strings.Join(items, "\n"))
	}

	if len(blocks) == 0 {
		return NoContext
	}
	return strings.Join(blocks, "\n\n")
}

const userTemplate = `Tipo de peça: %s

FATOS (resumo do caso):
%s

PEDIDOS:
%s

DOCUMENTOS: %s
CLIENTE: %s • PROCESSO: %s

CONTEXTOS (RAG):
%s

Instruções:
- Estruture a peça completa (Preâmbulo; I – Dos Fatos; II – Do Direito; III – Dos Pedidos; IV – Provas; V – Valor da Causa, se couber; Termos).
- Faça subsunção norma→fato→conclusão; evite floreios e citações longas literais.
- Use jurisprudência de maneira RESUMIDA quando pertinente.
- Linguagem técnica, objetiva e com urbanidade forense.
`

// BuildMessages returns the system and user prompts for a drafting request
func BuildMessages(rag models.RAGContext) (system, user string) {
	relief := rag.RequestedRelief
	if relief == "" {
		relief = DefaultRelief
	}
	docs := NoContext
	if len(rag.Documents) > 0 {
		docs = strings.Join(rag.Documents, ", ")
	}

	user = fmt.Sprintf(userTemplate,
		rag.BriefType,
		rag.Facts,
		relief,
		docs,
		orDash(rag.ClientID),
		orDash(rag.CaseID),
		AssembleContext(rag.Similar, rag.CaseLaw),
	)
	return prompts.SystemPrompt(rag.Area), user
}

// BuildRefineMessage returns the user prompt for a refinement request
func BuildRefineMessage(baseText, instruction string) string {
	return "Refine a peça abaixo:\n\n" + baseText + "\n\nInstrução: " + instruction
}

// RetrievalQuery is the text embedded to find similar documents
func RetrievalQuery(req models.GenerationRequest) string {
	return req.BriefType + "\n" + req.Facts + "\n" + req.RequestedRelief
}

// CaseLawQuery is the question sent to the case-law searcher
func CaseLawQuery(req models.GenerationRequest) string {
	return fmt.Sprintf("%s %s %s jurisprudência aplicável",
		req.BriefType, truncate(req.Facts, 200), truncate(req.RequestedRelief, 140))
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDash(s string) string {
	if s == "" {
		return NoContext
	}
	return s
}
