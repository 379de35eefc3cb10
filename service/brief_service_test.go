package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"briefdraft-backend/caselaw"
	"briefdraft-backend/formatter"
	"briefdraft-backend/llm"
	"briefdraft-backend/models"
	"briefdraft-backend/storage"
	"briefdraft-backend/vectorstore"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEmbedder counts a fixed vocabulary; enough for ranking in tests
type wordEmbedder struct{}

var vocabulary = []string{"consumidor", "atraso", "entrega", "penal", "contrato", "peça"}

func (wordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(vocabulary)+1)
		lower := strings.ToLower(t)
		for j, w := range vocabulary {
			v[j] = float32(strings.Count(lower, w))
		}
		v[len(vocabulary)] = 0.1
		out[i] = v
	}
	return out, nil
}

type recordingGenerator struct {
	mu      sync.Mutex
	prompts []llm.Prompt
	reply   string
	err     error
}

func (g *recordingGenerator) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	if g.err != nil {
		return "", g.err
	}
	if g.reply != "" {
		return g.reply, nil
	}
	return "PEÇA GERADA", nil
}

func (g *recordingGenerator) Model() string { return "recording" }

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, string, int) ([]models.CaseLawResult, error) {
	return nil, errors.New("tavily timeout")
}

type recordingSearcher struct {
	mu       sync.Mutex
	question string
	area     string
	k        int
}

func (s *recordingSearcher) Search(ctx context.Context, question, area string, k int) ([]models.CaseLawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.question, s.area, s.k = question, area, k
	return []models.CaseLawResult{{Title: "REsp 123", URL: "https://stj.jus.br/123", Snippet: "atraso na entrega gera dano"}}, nil
}

type failingFormatter struct{}

func (failingFormatter) Format(context.Context, string, string, string) (string, error) {
	return "", formatter.ErrFormattingFailed
}

func newDocxFormatter(t *testing.T) *formatter.DocxFormatter {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return formatter.NewDocxFormatter(store, nil)
}

func demoRequest() models.GenerationRequest {
	return models.GenerationRequest{
		BriefType:       "Petição inicial",
		Facts:           "Cliente sofreu atraso na entrega",
		RequestedRelief: "",
		Area:            "consumidor",
	}
}

func TestGenerateBriefDemoMode(t *testing.T) {
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend())
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithSearcher(caselaw.DemoClient{}),
		BriefWithGenerator(llm.DemoGenerator{}),
		BriefWithFormatter(newDocxFormatter(t)),
	)

	art, err := svc.GenerateBrief(context.Background(), demoRequest())
	require.NoError(t, err)
	svc.Wait()

	assert.True(t, strings.HasPrefix(art.Text, "(DEMO)"))
	assert.Contains(t, art.Text, "a) Citação da parte ré; b) Procedência; c) Custas e honorários.")
	assert.Contains(t, art.Text, "Exemplo jurisprudencial (consumidor)")
	assert.NotEmpty(t, art.FileHandle)
	assert.True(t, strings.HasSuffix(art.FileHandle, ".docx"))
}

func TestGenerateBriefIsDeterministicInDemoMode(t *testing.T) {
	svc := NewBriefService(BriefWithFormatter(newDocxFormatter(t)))

	a, err := svc.GenerateBrief(context.Background(), demoRequest())
	require.NoError(t, err)
	b, err := svc.GenerateBrief(context.Background(), demoRequest())
	require.NoError(t, err)

	assert.Equal(t, a.Text, b.Text)
	assert.NotEqual(t, a.FileHandle, b.FileHandle)
}

func TestGenerateBriefUsesRetrievedContext(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithEmbedder(wordEmbedder{}))
	_, err := store.Add(ctx, models.CategoryOfficeTemplate, "modelo consumidor atraso entrega", nil)
	require.NoError(t, err)
	_, err = store.Add(ctx, models.CategoryCaseLaw, "ementa sobre contrato", nil)
	require.NoError(t, err)

	gen := &recordingGenerator{}
	searcher := &recordingSearcher{}
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithSearcher(searcher),
		BriefWithGenerator(gen),
		BriefWithFormatter(newDocxFormatter(t)),
	)

	art, err := svc.GenerateBrief(ctx, demoRequest())
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, "PEÇA GERADA", art.Text)

	require.Len(t, gen.prompts, 1)
	p := gen.prompts[0]
	assert.InDelta(t, 0.2, p.Temperature, 1e-6)
	assert.Contains(t, p.System, "DIREITO DO CONSUMIDOR")
	assert.Contains(t, p.User, "=== MODELOS DO ESCRITÓRIO ===\n- modelo consumidor atraso entrega")
	assert.Contains(t, p.User, "=== JURIS (BASE INTERNA) ===\n- ementa sobre contrato")
	assert.Contains(t, p.User, "- REsp 123 — https://stj.jus.br/123\n  atraso na entrega gera dano")
	assert.Less(t,
		strings.Index(p.User, "MODELOS DO ESCRITÓRIO"),
		strings.Index(p.User, "JURISPRUDÊNCIA/TEXTOS EXTERNOS"))

	assert.Equal(t, "Petição inicial Cliente sofreu atraso na entrega  jurisprudência aplicável", searcher.question)
	assert.Equal(t, "consumidor", searcher.area)
	assert.Equal(t, 7, searcher.k)
}

func TestGenerateBriefReindexesResult(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithEmbedder(wordEmbedder{}))
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithGenerator(&recordingGenerator{reply: "peça sobre atraso"}),
		BriefWithFormatter(newDocxFormatter(t)),
	)

	req := demoRequest()
	req.ClientID = "cli-1"
	req.CaseID = "proc-9"
	_, err := svc.GenerateBrief(ctx, req)
	require.NoError(t, err)
	svc.Wait()

	res := store.Query(ctx, models.CategoryGeneratedBrief, "atraso", 4)
	require.Len(t, res, 1)
	assert.Equal(t, "peça sobre atraso", res[0].Text)
	assert.Equal(t, map[string]string{"tipo": "peca", "cliente": "cli-1", "processo": "proc-9"}, res[0].Metadata)
}

func TestGenerateBriefSurvivesDegradedDependencies(t *testing.T) {
	log, hook := test.NewNullLogger()
	// no embedder: retrieval yields nothing and re-index fails
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithLogger(log))
	gen := &recordingGenerator{}
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithSearcher(failingSearcher{}),
		BriefWithGenerator(gen),
		BriefWithFormatter(newDocxFormatter(t)),
		BriefWithLogger(log),
	)

	art, err := svc.GenerateBrief(context.Background(), demoRequest())
	require.NoError(t, err)
	svc.Wait()

	assert.NotEmpty(t, art.FileHandle)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0].User, "CONTEXTOS (RAG):\n—\n")

	var warnings []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e.Message)
		}
	}
	assert.Contains(t, warnings, "case-law search failed, continuing without external context")
	assert.Contains(t, warnings, "failed to index document")
}

func TestGenerateBriefGenerationFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewBriefService(
		BriefWithGenerator(&recordingGenerator{err: errors.Join(llm.ErrGenerationFailed, errors.New("502"))}),
		BriefWithFormatter(failingFormatter{}),
		BriefWithLogger(log),
	)

	_, err := svc.GenerateBrief(context.Background(), demoRequest())
	assert.ErrorIs(t, err, llm.ErrGenerationFailed)
	assert.NotErrorIs(t, err, formatter.ErrFormattingFailed)
}

func TestGeneratorErrorsAreTagged(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewBriefService(
		BriefWithGenerator(&recordingGenerator{err: errors.New("connection reset")}),
		BriefWithFormatter(newDocxFormatter(t)),
		BriefWithLogger(log),
	)

	_, err := svc.GenerateBrief(context.Background(), demoRequest())
	assert.ErrorIs(t, err, llm.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = svc.RefineBrief(context.Background(), RefineRequest{BaseText: "texto", Instruction: "ajustar"})
	assert.ErrorIs(t, err, llm.ErrGenerationFailed)
}

func TestGenerateBriefFormattingFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithEmbedder(wordEmbedder{}))
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithFormatter(failingFormatter{}),
		BriefWithLogger(log),
	)

	_, err := svc.GenerateBrief(context.Background(), demoRequest())
	assert.ErrorIs(t, err, formatter.ErrFormattingFailed)
	svc.Wait()

	// nothing is indexed when no document was produced
	assert.Empty(t, store.Query(context.Background(), models.CategoryGeneratedBrief, "peça", 4))
}

func TestGenerateBriefConcurrentCalls(t *testing.T) {
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithEmbedder(wordEmbedder{}))
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithFormatter(newDocxFormatter(t)),
	)

	var wg sync.WaitGroup
	arts := make([]*models.GeneratedArtifact, 2)
	for i := range arts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := demoRequest()
			req.ClientID = []string{"a", "b"}[i]
			art, err := svc.GenerateBrief(context.Background(), req)
			assert.NoError(t, err)
			arts[i] = art
		}(i)
	}
	wg.Wait()
	svc.Wait()

	require.NotNil(t, arts[0])
	require.NotNil(t, arts[1])
	assert.NotEqual(t, arts[0].FileHandle, arts[1].FileHandle)
	assert.Contains(t, arts[0].Text, "CLIENTE: a")
	assert.Contains(t, arts[1].Text, "CLIENTE: b")

	stats, err := store.Stats(context.Background(), 0)
	require.NoError(t, err)
	for _, st := range stats {
		if st.Category == models.CategoryGeneratedBrief {
			assert.Equal(t, 2, st.Count)
		}
	}
}

func TestRefineBrief(t *testing.T) {
	gen := &recordingGenerator{reply: "versão refinada"}
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithEmbedder(wordEmbedder{}))
	svc := NewBriefService(
		BriefWithStore(store),
		BriefWithGenerator(gen),
		BriefWithFormatter(newDocxFormatter(t)),
	)

	art, err := svc.RefineBrief(context.Background(), RefineRequest{
		Area:        "penal",
		BaseText:    "texto base",
		Instruction: "reforçar nulidade",
	})
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "versão refinada", art.Text)
	assert.True(t, strings.HasSuffix(art.FileHandle, ".docx"))
	require.Len(t, gen.prompts, 1)
	assert.InDelta(t, 0.3, gen.prompts[0].Temperature, 1e-6)
	assert.Contains(t, gen.prompts[0].System, "DIREITO PENAL")
	assert.Equal(t, "Refine a peça abaixo:\n\ntexto base\n\nInstrução: reforçar nulidade", gen.prompts[0].User)

	// refinement performs no retrieval and no indexing
	assert.Empty(t, store.Query(context.Background(), models.CategoryGeneratedBrief, "versão", 4))
}

func TestRefineBriefValidation(t *testing.T) {
	svc := NewBriefService(BriefWithFormatter(newDocxFormatter(t)))

	_, err := svc.RefineBrief(context.Background(), RefineRequest{Instruction: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.RefineBrief(context.Background(), RefineRequest{BaseText: "x", Instruction: "  "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSearchCaseLaw(t *testing.T) {
	searcher := &recordingSearcher{}
	svc := NewBriefService(BriefWithSearcher(searcher))

	res, err := svc.SearchCaseLaw(context.Background(), "dano moral", "civil")
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, "dano moral", searcher.question)
	assert.Equal(t, 7, searcher.k)

	_, err = svc.SearchCaseLaw(context.Background(), " ", "civil")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewBriefService(BriefWithSearcher(failingSearcher{})).SearchCaseLaw(context.Background(), "q", "")
	assert.Error(t, err)
}

func TestDemoMode(t *testing.T) {
	gen, search := NewBriefService().DemoMode()
	assert.True(t, gen)
	assert.True(t, search)

	gen, search = NewBriefService(BriefWithGenerator(&recordingGenerator{}), BriefWithSearcher(failingSearcher{})).DemoMode()
	assert.False(t, gen)
	assert.False(t, search)
}
