package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"briefdraft-backend/extract"
	"briefdraft-backend/logger"
	"briefdraft-backend/models"
	"briefdraft-backend/vectorstore"

	"github.com/sirupsen/logrus"
)

// ErrEmptyDocument is returned for files with no extractable text
var ErrEmptyDocument = errors.New("document has no text")

// AreaGeneral is the area of documents that match no keyword list
const AreaGeneral = "geral"

type areaKeywords struct {
	area  string
	terms []string
}

// checked in order; the first area with a matching term wins
var areaPatterns = []areaKeywords{
	{"civil", []string{"obrigação", "contrato", "indenização", "cpc"}},
	{"consumidor", []string{"consumidor", "fornecedor", "cdc", "produto", "serviço"}},
	{"empresarial", []string{"sociedade", "falência", "recuperação judicial", "empresa", "título de crédito"}},
	{"trabalho", []string{"clt", "empregado", "empregador", "trabalhista", "rescisão"}},
	{"penal", []string{"crime", "pena", "denúncia", "prisão", "cpp", "reclusão"}},
	{"remedios_constitucionais", []string{"mandado de segurança", "habeas corpus", "habeas data", "injunção"}},
}

// DetectArea classifies text into a practice area by keyword
func DetectArea(text string) string {
	lower := strings.ToLower(text)
	for _, p := range areaPatterns {
		for _, term := range p.terms {
			if strings.Contains(lower, term) {
				return p.area
			}
		}
	}
	return AreaGeneral
}

// DetectKind picks the collection for a file from its name. The extension
// is ignored so ".docx" never reads as "doc".
func DetectKind(name string) models.Category {
	base := filepath.Base(name)
	lower := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	switch {
	case containsAny(lower, "modelo", "minuta"):
		return models.CategoryOfficeTemplate
	case containsAny(lower, "juris", "acórdão", "ementa"):
		return models.CategoryCaseLaw
	case containsAny(lower, "proc", "doc", "anexo"):
		return models.CategoryClientDocument
	default:
		return models.CategoryGeneratedBrief
	}
}

// IngestMetadata returns the metadata stored with an ingested document
func IngestMetadata(kind models.Category, area, name string) map[string]string {
	switch kind {
	case models.CategoryOfficeTemplate:
		return map[string]string{"tipo": "modelo", "assunto": area}
	case models.CategoryCaseLaw:
		return map[string]string{"tipo": "juris", "origem": area, "url": ""}
	case models.CategoryClientDocument:
		return map[string]string{"tipo": "doc", "cliente": "", "processo": "", "nome": name}
	default:
		return map[string]string{"tipo": "peca", "cliente": "", "processo": ""}
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IngestService loads office files into the vector store
type IngestService struct {
	store *vectorstore.Store
	log   logrus.FieldLogger
}

func NewIngestService(store *vectorstore.Store, log logrus.FieldLogger) *IngestService {
	return &IngestService{store: store, log: logger.Component(log, "ingest")}
}

// IngestResult describes one indexed file
type IngestResult struct {
	ID   string
	Name string
	Kind models.Category
	Area string
}

// IngestFile extracts, classifies and stores one file
func (s *IngestService) IngestFile(ctx context.Context, name string, data []byte) (*IngestResult, error) {
	text, err := extract.Text(name, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	kind := DetectKind(name)
	area := DetectArea(text)

	id, err := s.store.Add(ctx, kind, text, IngestMetadata(kind, area, name))
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return &IngestResult{ID: id, Name: name, Kind: kind, Area: area}, nil
}

// IngestDir indexes every supported file directly inside dir, in name order.
// Failing files are logged and skipped; the indexed ones are returned.
func (s *IngestService) IngestDir(ctx context.Context, dir string) ([]IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read ingest directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var results []IngestResult
	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(entry.Name()) {
			continue
		}
		log := s.log.WithField("file", entry.Name())

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.WithError(err).Warn("failed to read file")
			continue
		}

		res, err := s.IngestFile(ctx, entry.Name(), data)
		if errors.Is(err, ErrEmptyDocument) {
			log.Warn("empty or unreadable file, skipped")
			continue
		}
		if err != nil {
			log.WithError(err).Warn("failed to ingest file")
			continue
		}

		log.WithFields(logrus.Fields{"kind": res.Kind, "area": res.Area, "id": res.ID}).Info("file indexed")
		results = append(results, *res)
	}
	return results, nil
}
