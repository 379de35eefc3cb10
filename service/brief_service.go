package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"briefdraft-backend/caselaw"
	"briefdraft-backend/formatter"
	"briefdraft-backend/llm"
	"briefdraft-backend/logger"
	"briefdraft-backend/models"
	"briefdraft-backend/prompts"
	"briefdraft-backend/vectorstore"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	similarPerCategory = 4
	caseLawResults     = 7
)

// BriefService runs the retrieval-augmented drafting pipeline
type BriefService struct {
	store     *vectorstore.Store
	searcher  caselaw.Searcher
	generator llm.Generator
	formatter formatter.Formatter
	log       logrus.FieldLogger

	pending sync.WaitGroup
}

// BriefServiceOption is a functional option for BriefService
type BriefServiceOption func(*BriefService)

// BriefWithStore sets the vector store
func BriefWithStore(store *vectorstore.Store) BriefServiceOption {
	return func(s *BriefService) {
		s.store = store
	}
}

// BriefWithSearcher sets the case-law searcher
func BriefWithSearcher(searcher caselaw.Searcher) BriefServiceOption {
	return func(s *BriefService) {
		s.searcher = searcher
	}
}

// BriefWithGenerator sets the generation client
func BriefWithGenerator(g llm.Generator) BriefServiceOption {
	return func(s *BriefService) {
		s.generator = g
	}
}

// BriefWithFormatter sets the document formatter
func BriefWithFormatter(f formatter.Formatter) BriefServiceOption {
	return func(s *BriefService) {
		s.formatter = f
	}
}

// BriefWithLogger sets the logger
func BriefWithLogger(l logrus.FieldLogger) BriefServiceOption {
	return func(s *BriefService) {
		s.log = l
	}
}

// NewBriefService creates a brief service. Missing searcher and generator
// default to their demo implementations.
func NewBriefService(opts ...BriefServiceOption) *BriefService {
	s := &BriefService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.searcher == nil {
		s.searcher = caselaw.DemoClient{}
	}
	if s.generator == nil {
		s.generator = llm.DemoGenerator{}
	}
	s.log = logger.Component(s.log, "brief_service")
	return s
}

// GenerateBrief drafts a brief: retrieve similar documents and external
// case-law, prompt the model, render the document and index the result.
func (s *BriefService) GenerateBrief(ctx context.Context, req models.GenerationRequest) (*models.GeneratedArtifact, error) {
	if s.formatter == nil {
		return nil, errors.New("formatter not set")
	}

	log := s.log.WithFields(logrus.Fields{
		"brief_type": req.BriefType,
		"area":       req.Area,
		"client_id":  req.ClientID,
		"case_id":    req.CaseID,
	})

	// 1-2. Internal retrieval and external search run concurrently
	rag := models.RAGContext{GenerationRequest: req}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rag.Similar = s.retrieveSimilar(gctx, RetrievalQuery(req))
		return nil
	})
	g.Go(func() error {
		results, err := s.searcher.Search(gctx, CaseLawQuery(req), req.Area, caseLawResults)
		if err != nil {
			log.WithError(err).Warn("case-law search failed, continuing without external context")
			return nil
		}
		rag.CaseLaw = results
		return nil
	})
	_ = g.Wait() // both branches degrade instead of failing

	// 3. Prompt
	system, user := BuildMessages(rag)

	// 4. Generation
	text, err := s.generator.Generate(ctx, llm.Prompt{
		System:      system,
		User:        user,
		Temperature: llm.DraftTemperature,
	})
	if err != nil {
		log.WithError(err).Error("brief generation failed")
		return nil, generationError(err)
	}

	// 5. Document
	handle, err := s.formatter.Format(ctx, text, req.ClientID, req.CaseID)
	if err != nil {
		log.WithError(err).Error("brief formatting failed")
		return nil, formattingError(err)
	}

	// 6. Index the new brief for future retrieval
	s.Reindex(text, req.ClientID, req.CaseID)

	log.WithFields(logrus.Fields{
		"file_handle":  handle,
		"case_law":     len(rag.CaseLaw),
		"context_size": len(user),
	}).Info("brief generated")

	return &models.GeneratedArtifact{Text: text, FileHandle: handle}, nil
}

func (s *BriefService) retrieveSimilar(ctx context.Context, query string) map[models.Category][]models.RetrievalResult {
	if s.store == nil {
		return map[models.Category][]models.RetrievalResult{}
	}
	return s.store.QueryAll(ctx, query, similarPerCategory)
}

// RefineRequest asks for a revision of an existing brief
type RefineRequest struct {
	Area        string
	BaseText    string
	Instruction string
	ClientID    string
	CaseID      string
}

// RefineBrief revises a brief following an instruction. No retrieval is done.
func (s *BriefService) RefineBrief(ctx context.Context, req RefineRequest) (*models.GeneratedArtifact, error) {
	if strings.TrimSpace(req.BaseText) == "" || strings.TrimSpace(req.Instruction) == "" {
		return nil, fmt.Errorf("%w: base text and instruction are required", ErrInvalidRequest)
	}
	if s.formatter == nil {
		return nil, errors.New("formatter not set")
	}

	text, err := s.generator.Generate(ctx, llm.Prompt{
		System:      prompts.SystemPrompt(req.Area),
		User:        BuildRefineMessage(req.BaseText, req.Instruction),
		Temperature: llm.RefineTemperature,
	})
	if err != nil {
		s.log.WithError(err).WithField("area", req.Area).Error("brief refinement failed")
		return nil, generationError(err)
	}

	handle, err := s.formatter.Format(ctx, text, req.ClientID, req.CaseID)
	if err != nil {
		return nil, formattingError(err)
	}
	return &models.GeneratedArtifact{Text: text, FileHandle: handle}, nil
}

// SearchCaseLaw runs a direct case-law search; errors are returned
func (s *BriefService) SearchCaseLaw(ctx context.Context, query, area string) ([]models.CaseLawResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	results, err := s.searcher.Search(ctx, query, area, caseLawResults)
	if err != nil {
		return nil, fmt.Errorf("case-law search: %w", err)
	}
	if results == nil {
		results = []models.CaseLawResult{}
	}
	return results, nil
}

// Reindex stores a generated brief in the generated-brief collection in the
// background. Failures are logged and never reach the caller.
func (s *BriefService) Reindex(text, clientID, caseID string) {
	s.index(models.CategoryGeneratedBrief, text, map[string]string{
		"tipo":     "peca",
		"cliente":  clientID,
		"processo": caseID,
	})
}

// IndexClientDocument stores uploaded document text in the background
func (s *BriefService) IndexClientDocument(text, clientID, caseID, name string) {
	s.index(models.CategoryClientDocument, text, map[string]string{
		"tipo":     "doc",
		"cliente":  clientID,
		"processo": caseID,
		"nome":     name,
	})
}

func (s *BriefService) index(category models.Category, text string, metadata map[string]string) {
	if s.store == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		id, err := s.store.Add(context.Background(), category, text, metadata)
		if err != nil {
			s.log.WithError(err).WithField("category", category).Warn("failed to index document")
			return
		}
		s.log.WithFields(logrus.Fields{"category": category, "id": id}).Debug("document indexed")
	}()
}

// Wait blocks until background indexing has finished
func (s *BriefService) Wait() {
	s.pending.Wait()
}

// GeneratorModel names the configured model for health reporting
func (s *BriefService) GeneratorModel() string {
	return s.generator.Model()
}

// DemoMode reports which capabilities run without credentials
func (s *BriefService) DemoMode() (generation, search bool) {
	_, search = s.searcher.(caselaw.DemoClient)
	return llm.IsDemo(s.generator), search
}

// generationError tags any generator failure with llm.ErrGenerationFailed,
// including those of generators that do not wrap it themselves
func generationError(err error) error {
	if errors.Is(err, llm.ErrGenerationFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", llm.ErrGenerationFailed, err)
}

func formattingError(err error) error {
	if errors.Is(err, formatter.ErrFormattingFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", formatter.ErrFormattingFailed, err)
}
