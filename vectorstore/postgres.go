package vectorstore

import (
	"context"
	"fmt"

	"briefdraft-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresBackend stores every category in the rag_documents table (pgvector)
type PostgresBackend struct {
	db *pgxpool.Pool
}

// NewPostgresBackend creates a backend over an existing pool.
// The schema is created by cmd/create-schema.
func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Collection(category models.Category) Collection {
	return &postgresCollection{db: b.db, category: category}
}

// Close is a no-op; the pool is owned by the caller
func (b *PostgresBackend) Close() error { return nil }

type postgresCollection struct {
	db       *pgxpool.Pool
	category models.Category
}

// Add inserts a document; an existing (category, id) pair is left untouched
func (c *postgresCollection) Add(ctx context.Context, rec models.DocumentRecord, vector []float32) error {
	query := `
		INSERT INTO rag_documents (category, id, text, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)
		ON CONFLICT (category, id) DO NOTHING`

	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := c.db.Exec(ctx, query, string(c.category), rec.ID, rec.Text, metadata, pgvector.NewVector(vector))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Search ranks by cosine distance (<=>), ascending. Rows embedded with a
// different dimension are skipped.
func (c *postgresCollection) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}

	query := `
		SELECT
			id,
			text,
			metadata,
			1 - (embedding <=> $1::vector) AS score
		FROM rag_documents
		WHERE
			category = $2
			AND vector_dims(embedding) = $3
		ORDER BY
			embedding <=> $1::vector
		LIMIT $4`

	rows, err := c.db.Query(ctx, query, pgvector.NewVector(vector), string(c.category), len(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	results := make([]models.RetrievalResult, 0, k)
	for rows.Next() {
		var r models.RetrievalResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Metadata, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return results, nil
}

func (c *postgresCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRow(ctx, "SELECT COUNT(*) FROM rag_documents WHERE category = $1", string(c.category)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (c *postgresCollection) Sample(ctx context.Context, limit int) ([]models.RetrievalResult, error) {
	rows, err := c.db.Query(ctx, `
		SELECT id, text, metadata
		FROM rag_documents
		WHERE category = $1
		ORDER BY created_at
		LIMIT $2`, string(c.category), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample documents: %w", err)
	}
	defer rows.Close()

	var out []models.RetrievalResult
	for rows.Next() {
		var r models.RetrievalResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
