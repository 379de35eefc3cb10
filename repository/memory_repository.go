package repository

import (
	"context"
	"errors"
	"fmt"

	"briefdraft-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryStore persists conversation snapshots. Records are append-only;
// the latest one for a client/case pair wins.
type MemoryStore interface {
	// FindLatest returns the newest record matching the non-nil filters,
	// or nil when nothing matches
	FindLatest(ctx context.Context, clientID, caseID *string) (*models.MemoryRecord, error)
	Save(ctx context.Context, rec *models.MemoryRecord) error
}

// PostgresMemoryRepository stores chat memory in the chat_memory table
type PostgresMemoryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresMemoryRepository creates a new memory repository
func NewPostgresMemoryRepository(db *pgxpool.Pool) *PostgresMemoryRepository {
	return &PostgresMemoryRepository{db: db}
}

// Save inserts a new snapshot
func (r *PostgresMemoryRepository) Save(ctx context.Context, rec *models.MemoryRecord) error {
	query := `
		INSERT INTO chat_memory (client_id, case_id, messages, last_brief)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		rec.ClientID,
		rec.CaseID,
		rec.Messages,
		rec.LastBrief,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save chat memory: %w", err)
	}
	return nil
}

// FindLatest treats a nil filter as a wildcard
func (r *PostgresMemoryRepository) FindLatest(ctx context.Context, clientID, caseID *string) (*models.MemoryRecord, error) {
	query := `
		SELECT client_id, case_id, messages, last_brief, created_at
		FROM chat_memory
		WHERE
			($1::text IS NULL OR client_id = $1)
			AND ($2::text IS NULL OR case_id = $2)
		ORDER BY id DESC
		LIMIT 1`

	rec := &models.MemoryRecord{}
	err := r.db.QueryRow(ctx, query, clientID, caseID).Scan(
		&rec.ClientID,
		&rec.CaseID,
		&rec.Messages,
		&rec.LastBrief,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat memory: %w", err)
	}
	return rec, nil
}
