package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"briefdraft-backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// memoryRow is the chat_memory table as seen by gorm
type memoryRow struct {
	ID        uint                `gorm:"primaryKey"`
	ClientID  *string             `gorm:"index:idx_chat_memory_client_case"`
	CaseID    *string             `gorm:"index:idx_chat_memory_client_case"`
	Messages  models.ChatMessages `gorm:"type:text;not null"`
	LastBrief *string
	CreatedAt time.Time
}

func (memoryRow) TableName() string { return memoryCollection }

// SQLiteMemoryRepository keeps chat memory in a local SQLite file so the
// server runs without an external database
type SQLiteMemoryRepository struct {
	db *gorm.DB
}

// NewSQLiteMemoryRepository opens (or creates) the database at path and
// migrates the chat_memory table
func NewSQLiteMemoryRepository(path string) (*SQLiteMemoryRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&memoryRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate chat memory: %w", err)
	}
	return &SQLiteMemoryRepository{db: db}, nil
}

func (r *SQLiteMemoryRepository) Save(ctx context.Context, rec *models.MemoryRecord) error {
	messages := rec.Messages
	if messages == nil {
		messages = models.ChatMessages{}
	}
	row := &memoryRow{
		ClientID:  rec.ClientID,
		CaseID:    rec.CaseID,
		Messages:  messages,
		LastBrief: rec.LastBrief,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save chat memory: %w", err)
	}
	rec.CreatedAt = row.CreatedAt
	return nil
}

// FindLatest treats a nil filter as a wildcard and an empty string as an exact value
func (r *SQLiteMemoryRepository) FindLatest(ctx context.Context, clientID, caseID *string) (*models.MemoryRecord, error) {
	q := r.db.WithContext(ctx).Model(&memoryRow{})
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}
	if caseID != nil {
		q = q.Where("case_id = ?", *caseID)
	}

	var row memoryRow
	err := q.Order("id DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat memory: %w", err)
	}

	messages := row.Messages
	if messages == nil {
		messages = models.ChatMessages{}
	}
	return &models.MemoryRecord{
		ClientID:  row.ClientID,
		CaseID:    row.CaseID,
		Messages:  messages,
		LastBrief: row.LastBrief,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Close releases the database file
func (r *SQLiteMemoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
