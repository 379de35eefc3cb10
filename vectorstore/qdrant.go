package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"briefdraft-backend/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadDocID    = "doc_id"
	payloadText     = "text"
	payloadMetadata = "metadata"
)

// QdrantBackend keeps one Qdrant collection per category
type QdrantBackend struct {
	client *qdrant.Client

	mu      sync.Mutex
	ensured map[string]bool

	// serializes the existence check and the write of Add
	writeMu sync.Mutex
}

// NewQdrantBackend connects and waits for the server to become healthy
func NewQdrantBackend(host string, port int) (*QdrantBackend, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	b := &QdrantBackend{client: client, ensured: make(map[string]bool)}
	if err := b.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("qdrant unreachable at %s:%d: %w", host, port, err)
	}
	return b, nil
}

func (b *QdrantBackend) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 5 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := b.client.HealthCheck(ctx)
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

func (b *QdrantBackend) Collection(category models.Category) Collection {
	return &qdrantCollection{backend: b, name: category.CollectionName()}
}

func (b *QdrantBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// ensureCollection creates the collection on first write, sized to the
// dimension of the first vector written.
func (b *QdrantBackend) ensureCollection(ctx context.Context, name string, dim int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ensured[name] {
		return nil
	}

	exists, err := b.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		err = b.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}

	b.ensured[name] = true
	return nil
}

func (b *QdrantBackend) exists(ctx context.Context, name string) (bool, error) {
	b.mu.Lock()
	ok := b.ensured[name]
	b.mu.Unlock()
	if ok {
		return true, nil
	}
	return b.client.CollectionExists(ctx, name)
}

type qdrantCollection struct {
	backend *QdrantBackend
	name    string
}

// pointID maps arbitrary ids onto the UUIDs Qdrant requires
func pointID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (c *qdrantCollection) Add(ctx context.Context, rec models.DocumentRecord, vector []float32) error {
	if err := c.backend.ensureCollection(ctx, c.name, len(vector)); err != nil {
		return err
	}

	metadata := make(map[string]any, len(rec.Metadata))
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID(rec.ID)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			payloadDocID:    rec.ID,
			payloadText:     rec.Text,
			payloadMetadata: metadata,
		}),
	}

	c.backend.writeMu.Lock()
	defer c.backend.writeMu.Unlock()
	return insertPoint(ctx, c.backend.client, c.name, point)
}

// pointWriter is the part of the Qdrant client used to write points
type pointWriter interface {
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
}

// insertPoint writes point unless its id is already stored. Qdrant upserts
// overwrite, and stored records are never replaced.
func insertPoint(ctx context.Context, w pointWriter, collection string, point *qdrant.PointStruct) error {
	existing, err := w.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{point.GetId()},
	})
	if err != nil {
		return fmt.Errorf("failed to look up point: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	_, err = w.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func (c *qdrantCollection) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	exists, err := c.backend.exists(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []models.RetrievalResult{}, nil
	}

	points, err := c.backend.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", c.name, err)
	}

	results := make([]models.RetrievalResult, 0, len(points))
	for _, p := range points {
		r := fromPayload(p.GetPayload())
		r.Score = float64(p.GetScore())
		results = append(results, r)
	}
	return results, nil
}

func (c *qdrantCollection) Count(ctx context.Context) (int, error) {
	exists, err := c.backend.exists(ctx, c.name)
	if err != nil || !exists {
		return 0, err
	}

	n, err := c.backend.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", c.name, err)
	}
	return int(n), nil
}

func (c *qdrantCollection) Sample(ctx context.Context, limit int) ([]models.RetrievalResult, error) {
	exists, err := c.backend.exists(ctx, c.name)
	if err != nil || !exists {
		return nil, err
	}

	points, err := c.backend.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.name,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll collection %s: %w", c.name, err)
	}

	out := make([]models.RetrievalResult, 0, len(points))
	for _, p := range points {
		out = append(out, fromPayload(p.GetPayload()))
	}
	return out, nil
}

func fromPayload(payload map[string]*qdrant.Value) models.RetrievalResult {
	r := models.RetrievalResult{
		ID:       payload[payloadDocID].GetStringValue(),
		Text:     payload[payloadText].GetStringValue(),
		Metadata: map[string]string{},
	}
	for k, v := range payload[payloadMetadata].GetStructValue().GetFields() {
		r.Metadata[k] = v.GetStringValue()
	}
	return r
}
