package service

import (
	"context"
	"errors"

	"briefdraft-backend/models"
	"briefdraft-backend/repository"
)

// MemoryService handles the per-client conversation memory
type MemoryService struct {
	store repository.MemoryStore
}

// MemoryServiceOption is a functional option for MemoryService
type MemoryServiceOption func(*MemoryService)

// WithMemoryStore sets the memory store
func WithMemoryStore(store repository.MemoryStore) MemoryServiceOption {
	return func(s *MemoryService) {
		s.store = store
	}
}

// NewMemoryService creates a new memory service
func NewMemoryService(opts ...MemoryServiceOption) *MemoryService {
	s := &MemoryService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListMemoryRequest selects the memory to load; nil fields match anything
type ListMemoryRequest struct {
	ClientID *string
	CaseID   *string
}

// ListMemoryResult is the latest stored conversation
type ListMemoryResult struct {
	Messages  models.ChatMessages
	LastBrief *string
}

// ListMemory returns the newest record for the filters, or an empty result
func (s *MemoryService) ListMemory(ctx context.Context, req ListMemoryRequest) (*ListMemoryResult, error) {
	if s.store == nil {
		return nil, errors.New("memory store not set")
	}

	rec, err := s.store.FindLatest(ctx, req.ClientID, req.CaseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &ListMemoryResult{Messages: models.ChatMessages{}}, nil
	}

	messages := rec.Messages
	if messages == nil {
		messages = models.ChatMessages{}
	}
	return &ListMemoryResult{Messages: messages, LastBrief: rec.LastBrief}, nil
}

// SaveMemoryRequest appends a conversation snapshot
type SaveMemoryRequest struct {
	ClientID  *string
	CaseID    *string
	Messages  models.ChatMessages
	LastBrief *string
}

// SaveMemoryResult is empty on success
type SaveMemoryResult struct{}

// SaveMemory stores a new snapshot; earlier ones are kept
func (s *MemoryService) SaveMemory(ctx context.Context, req SaveMemoryRequest) (*SaveMemoryResult, error) {
	if s.store == nil {
		return nil, errors.New("memory store not set")
	}

	messages := req.Messages
	if messages == nil {
		messages = models.ChatMessages{}
	}
	err := s.store.Save(ctx, &models.MemoryRecord{
		ClientID:  req.ClientID,
		CaseID:    req.CaseID,
		Messages:  messages,
		LastBrief: req.LastBrief,
	})
	if err != nil {
		return nil, err
	}
	return &SaveMemoryResult{}, nil
}
