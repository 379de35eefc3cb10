package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"briefdraft-backend/embeddings"
	"briefdraft-backend/logger"
	"briefdraft-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoEmbedder      = errors.New("no embedding provider configured")
	ErrEmptyText       = errors.New("text is empty")
)

// Collection is the storage handle for one category
type Collection interface {
	Add(ctx context.Context, rec models.DocumentRecord, vector []float32) error
	// Search returns up to k records nearest to vector, most similar first
	Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error)
	Count(ctx context.Context) (int, error)
	Sample(ctx context.Context, limit int) ([]models.RetrievalResult, error)
}

// Backend provides a Collection per category
type Backend interface {
	Collection(category models.Category) Collection
	Close() error
}

// Store exposes the four categories as independent namespaces over one backend
type Store struct {
	collections map[models.Category]Collection
	embedder    embeddings.Embedder
	log         logrus.FieldLogger
}

// StoreOption is a functional option for Store
type StoreOption func(*Store)

// WithEmbedder sets the embedding provider
func WithEmbedder(e embeddings.Embedder) StoreOption {
	return func(s *Store) {
		s.embedder = e
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) StoreOption {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore binds every category to its collection in backend
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{collections: make(map[models.Category]Collection)}
	for _, c := range models.AllCategories() {
		s.collections[c] = backend.Collection(c)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.Component(s.log, "vectorstore")
	return s
}

// Add stores text under category and returns its id. The id comes from
// metadata["id"] when present, otherwise a random one is generated.
func (s *Store) Add(ctx context.Context, category models.Category, text string, metadata map[string]string) (string, error) {
	col, ok := s.collections[category]
	if !ok || col == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if s.embedder == nil {
		return "", ErrNoEmbedder
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	id := meta["id"]
	if id == "" {
		id = NewID()
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return "", fmt.Errorf("embed document: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return "", errors.New("embed document: empty embedding")
	}

	rec := models.DocumentRecord{ID: id, Text: text, Metadata: meta, Category: category}
	if err := col.Add(ctx, rec, vecs[0]); err != nil {
		return "", fmt.Errorf("add to %s: %w", category, err)
	}
	return id, nil
}

// Query returns up to k documents of category nearest to text.
// It never fails: any problem yields an empty result and a warning.
func (s *Store) Query(ctx context.Context, category models.Category, text string, k int) []models.RetrievalResult {
	log := s.log.WithField("category", category)

	col, ok := s.collections[category]
	if !ok || col == nil || k <= 0 {
		return []models.RetrievalResult{}
	}
	if s.embedder == nil {
		log.Debug("no embedder configured, skipping retrieval")
		return []models.RetrievalResult{}
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil || len(vecs) != 1 || len(vecs[0]) == 0 {
		log.WithError(err).Warn("query embedding failed, continuing with empty context")
		return []models.RetrievalResult{}
	}

	results, err := col.Search(ctx, vecs[0], k)
	if err != nil {
		log.WithError(err).Warn("vector search failed, continuing with empty context")
		return []models.RetrievalResult{}
	}
	if len(results) > k {
		results = results[:k]
	}
	if results == nil {
		results = []models.RetrievalResult{}
	}
	return results
}

// QueryAll queries every category concurrently with the same text and k
func (s *Store) QueryAll(ctx context.Context, text string, k int) map[models.Category][]models.RetrievalResult {
	categories := models.AllCategories()
	out := make(map[models.Category][]models.RetrievalResult, len(categories))

	results := make([][]models.RetrievalResult, len(categories))
	var g errgroup.Group
	for i, c := range categories {
		g.Go(func() error {
			results[i] = s.Query(ctx, c, text, k)
			return nil
		})
	}
	_ = g.Wait() // Query never fails

	for i, c := range categories {
		out[c] = results[i]
	}
	return out
}

// CategoryStats summarizes one collection for inspection
type CategoryStats struct {
	Category models.Category
	Count    int
	Samples  []models.RetrievalResult
}

// Stats returns count and up to sample records for every category
func (s *Store) Stats(ctx context.Context, sample int) ([]CategoryStats, error) {
	stats := make([]CategoryStats, 0, len(s.collections))
	for _, c := range models.AllCategories() {
		col := s.collections[c]
		n, err := col.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		var samples []models.RetrievalResult
		if sample > 0 && n > 0 {
			samples, err = col.Sample(ctx, sample)
			if err != nil {
				return nil, fmt.Errorf("sample %s: %w", c, err)
			}
		}
		stats = append(stats, CategoryStats{Category: c, Count: n, Samples: samples})
	}
	return stats, nil
}

// NewID returns a random 32-character hex identifier
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
