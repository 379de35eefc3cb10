package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"briefdraft-backend/models"

	"github.com/philippgille/chromem-go"
)

// dimensionsCollection records the vector size of each category collection.
// chromem cannot enumerate documents, so sampling queries with a reference vector
// of that size.
const dimensionsCollection = "_dimensions"

var errPrecomputedOnly = errors.New("embedded backend only accepts precomputed embeddings")

// precomputed stops chromem from falling back to its own OpenAI embedding call
func precomputed(ctx context.Context, text string) ([]float32, error) {
	return nil, errPrecomputedOnly
}

// MemoryBackend runs an embedded chromem database with one collection per
// category. Without a persist directory contents are lost on restart.
type MemoryBackend struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[models.Category]*memoryCollection
}

// NewMemoryBackend creates an in-process backend
func NewMemoryBackend() *MemoryBackend {
	return newMemoryBackend(chromem.NewDB())
}

// NewPersistentMemoryBackend loads or creates a chromem database under dir.
// Every write is flushed to disk before it returns.
func NewPersistentMemoryBackend(dir string) (*MemoryBackend, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector directory %s: %w", dir, err)
	}
	return newMemoryBackend(db), nil
}

func newMemoryBackend(db *chromem.DB) *MemoryBackend {
	return &MemoryBackend{db: db, collections: make(map[models.Category]*memoryCollection)}
}

func (b *MemoryBackend) Collection(category models.Category) Collection {
	b.mu.Lock()
	defer b.mu.Unlock()

	col, ok := b.collections[category]
	if !ok {
		col = &memoryCollection{backend: b, name: category.CollectionName()}
		b.collections[category] = col
	}
	return col
}

func (b *MemoryBackend) Close() error { return nil }

func (b *MemoryBackend) dimension(ctx context.Context, name string) (int, error) {
	dims := b.db.GetCollection(dimensionsCollection, precomputed)
	if dims == nil {
		return 0, nil
	}
	doc, err := dims.GetByID(ctx, name)
	if err != nil {
		return 0, nil
	}
	return strconv.Atoi(doc.Content)
}

func (b *MemoryBackend) setDimension(ctx context.Context, name string, dim int) error {
	dims, err := b.db.GetOrCreateCollection(dimensionsCollection, nil, precomputed)
	if err != nil {
		return err
	}
	return dims.AddDocument(ctx, chromem.Document{
		ID:        name,
		Content:   strconv.Itoa(dim),
		Embedding: []float32{1},
	})
}

type memoryCollection struct {
	backend *MemoryBackend
	name    string

	// serializes the existence check and the write in Add
	mu sync.Mutex
}

func (c *memoryCollection) get() *chromem.Collection {
	return c.backend.db.GetCollection(c.name, precomputed)
}

// Add inserts a record; records are immutable, so an existing id is kept as is
func (c *memoryCollection) Add(ctx context.Context, rec models.DocumentRecord, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	col, err := c.backend.db.GetOrCreateCollection(c.name, nil, precomputed)
	if err != nil {
		return fmt.Errorf("failed to open collection %s: %w", c.name, err)
	}
	if _, err := col.GetByID(ctx, rec.ID); err == nil {
		return nil
	}

	dim, err := c.backend.dimension(ctx, c.name)
	if err != nil {
		return fmt.Errorf("failed to read dimension of %s: %w", c.name, err)
	}
	if dim == 0 {
		if err := c.backend.setDimension(ctx, c.name, len(vector)); err != nil {
			return fmt.Errorf("failed to record dimension of %s: %w", c.name, err)
		}
	} else if dim != len(vector) {
		return fmt.Errorf("collection %s holds %d-dimensional vectors, got %d", c.name, dim, len(vector))
	}

	v := make([]float32, len(vector))
	copy(v, vector)
	meta := make(map[string]string, len(rec.Metadata))
	for k, val := range rec.Metadata {
		meta[k] = val
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        rec.ID,
		Metadata:  meta,
		Embedding: v,
		Content:   rec.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to add document to %s: %w", c.name, err)
	}
	return nil
}

func (c *memoryCollection) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	col := c.get()
	if col == nil || k <= 0 {
		return []models.RetrievalResult{}, nil
	}
	dim, err := c.backend.dimension(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if dim != len(vector) {
		return []models.RetrievalResult{}, nil
	}
	return c.query(ctx, col, vector, k, true)
}

func (c *memoryCollection) Count(ctx context.Context) (int, error) {
	col := c.get()
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

// Sample returns up to limit records ranked against a uniform reference vector
func (c *memoryCollection) Sample(ctx context.Context, limit int) ([]models.RetrievalResult, error) {
	col := c.get()
	if col == nil || limit <= 0 {
		return nil, nil
	}
	dim, err := c.backend.dimension(ctx, c.name)
	if err != nil || dim == 0 {
		return nil, err
	}

	ref := make([]float32, dim)
	for i := range ref {
		ref[i] = 1
	}
	return c.query(ctx, col, ref, limit, false)
}

func (c *memoryCollection) query(ctx context.Context, col *chromem.Collection, vector []float32, n int, scored bool) ([]models.RetrievalResult, error) {
	// chromem rejects n larger than the collection
	if count := col.Count(); n > count {
		n = count
	}
	if n == 0 {
		return []models.RetrievalResult{}, nil
	}

	docs, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", c.name, err)
	}

	results := make([]models.RetrievalResult, 0, len(docs))
	for _, d := range docs {
		r := models.RetrievalResult{ID: d.ID, Text: d.Content, Metadata: d.Metadata}
		if scored {
			r.Score = float64(d.Similarity)
		}
		results = append(results, r)
	}
	return results, nil
}
