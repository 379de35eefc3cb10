package main

import (
	"context"
	"fmt"
	"os"

	"briefdraft-backend/config"
	"briefdraft-backend/logger"
	"briefdraft-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// maxIndexedDimension is the largest vector pgvector can index with HNSW
const maxIndexedDimension = 2000

type statement struct {
	name string
	sql  string
}

func main() {
	var (
		dimension int
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "create-schema",
		Short: "Create the rag_documents and chat_memory tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			log := logger.New(cfg.LogLevel)

			pool, err := repository.NewPostgresPool(cmd.Context(), cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			return createSchema(cmd.Context(), pool, log, dimension, reset)
		},
	}
	cmd.Flags().IntVar(&dimension, "dimension", 3072, "embedding dimension of rag_documents.embedding (0 for mixed dimensions)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop existing tables first")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func createSchema(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger, dimension int, reset bool) error {
	if reset {
		for _, table := range []string{"rag_documents", "chat_memory"} {
			if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
				return fmt.Errorf("failed to drop %s: %w", table, err)
			}
			log.WithField("table", table).Info("Dropped existing table")
		}
	}

	for _, st := range tableStatements(dimension) {
		if _, err := pool.Exec(ctx, st.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
		log.WithField("table", st.name).Info("Table ready")
	}

	created := 0
	for _, idx := range indexStatements(dimension) {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.WithError(err).WithField("index", idx.name).Warn("Failed to create index")
			continue
		}
		created++
		log.WithField("index", idx.name).Info("Index ready")
	}

	log.WithFields(logrus.Fields{"dimension": dimension, "indexes": created}).Info("Database schema created")
	return nil
}

func tableStatements(dimension int) []statement {
	vectorType := "vector"
	if dimension > 0 {
		vectorType = fmt.Sprintf("vector(%d)", dimension)
	}

	return []statement{
		{
			name: "rag_documents",
			sql: `
CREATE TABLE IF NOT EXISTS rag_documents (
    category   VARCHAR(50) NOT NULL,
    id         TEXT NOT NULL,
    text       TEXT NOT NULL,
    metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
    embedding  ` + vectorType + ` NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (category, id)
);`,
		},
		{
			name: "chat_memory",
			sql: `
CREATE TABLE IF NOT EXISTS chat_memory (
    id         BIGSERIAL PRIMARY KEY,
    client_id  TEXT,
    case_id    TEXT,
    messages   JSONB NOT NULL DEFAULT '[]'::jsonb,
    last_brief TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
	}
}

func indexStatements(dimension int) []statement {
	indexes := []statement{
		{
			name: "idx_rag_documents_category",
			sql:  "CREATE INDEX IF NOT EXISTS idx_rag_documents_category ON rag_documents(category);",
		},
		{
			name: "idx_rag_documents_metadata",
			sql:  "CREATE INDEX IF NOT EXISTS idx_rag_documents_metadata ON rag_documents USING gin (metadata);",
		},
		{
			name: "idx_chat_memory_client_case",
			sql:  "CREATE INDEX IF NOT EXISTS idx_chat_memory_client_case ON chat_memory(client_id, case_id, id DESC);",
		},
	}

	// HNSW needs a fixed dimension within the pgvector limit; larger
	// embeddings are searched sequentially.
	if dimension > 0 && dimension <= maxIndexedDimension {
		indexes = append(indexes, statement{
			name: "idx_rag_documents_embedding_hnsw",
			sql: `CREATE INDEX IF NOT EXISTS idx_rag_documents_embedding_hnsw ON rag_documents
    USING hnsw (embedding vector_cosine_ops)
    WITH (m = 16, ef_construction = 64);`,
		})
	}
	return indexes
}
