package vectorstore

import (
	"errors"
	"fmt"

	"briefdraft-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendQdrant   = "qdrant"
)

// NewBackend builds the backend named by cfg.VectorBackend.
// db is required only for the postgres backend.
func NewBackend(cfg *config.Config, db *pgxpool.Pool) (Backend, error) {
	switch cfg.VectorBackend {
	case BackendMemory, "":
		if cfg.VectorPersistDir == "" {
			return NewMemoryBackend(), nil
		}
		return NewPersistentMemoryBackend(cfg.VectorPersistDir)
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("postgres vector backend requires DATABASE_URL")
		}
		return NewPostgresBackend(db), nil
	case BackendQdrant:
		return NewQdrantBackend(cfg.QdrantHost, cfg.QdrantPort)
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.VectorBackend)
	}
}
