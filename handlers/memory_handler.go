package handlers

import (
	"net/http"

	"briefdraft-backend/logger"
	"briefdraft-backend/models"
	"briefdraft-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MemoryHandler handles HTTP requests for conversation memory
type MemoryHandler struct {
	memoryService *service.MemoryService
	log           logrus.FieldLogger
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memoryService *service.MemoryService, log logrus.FieldLogger) *MemoryHandler {
	return &MemoryHandler{
		memoryService: memoryService,
		log:           logger.Component(log, "memory_handler"),
	}
}

// SaveMemoryRequest represents the request body for storing a conversation
type SaveMemoryRequest struct {
	ClientID  *string             `json:"client_id"`
	CaseID    *string             `json:"case_id"`
	Messages  models.ChatMessages `json:"messages"`
	LastBrief *string             `json:"last_brief"`
}

// MemoryResponse is the latest stored conversation
type MemoryResponse struct {
	Messages  models.ChatMessages `json:"messages"`
	LastBrief *string             `json:"last_brief"`
}

// ListMemory handles GET /api/memory
func (h *MemoryHandler) ListMemory(c *gin.Context) {
	req := service.ListMemoryRequest{
		ClientID: queryParam(c, "client_id"),
		CaseID:   queryParam(c, "case_id"),
	}

	result, err := h.memoryService.ListMemory(c.Request.Context(), req)
	if err != nil {
		h.log.WithError(err).Error("failed to load conversation memory")
		respondError(c, http.StatusInternalServerError, "MEMORY_FAILED", "could not load memory")
		return
	}

	respondOK(c, http.StatusOK, MemoryResponse{
		Messages:  result.Messages,
		LastBrief: result.LastBrief,
	})
}

// SaveMemory handles POST /api/memory
func (h *MemoryHandler) SaveMemory(c *gin.Context) {
	var req SaveMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	_, err := h.memoryService.SaveMemory(c.Request.Context(), service.SaveMemoryRequest{
		ClientID:  req.ClientID,
		CaseID:    req.CaseID,
		Messages:  req.Messages,
		LastBrief: req.LastBrief,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to save conversation memory")
		respondError(c, http.StatusInternalServerError, "MEMORY_FAILED", "could not save memory")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"ok": true})
}

// queryParam returns nil for an absent parameter. A present but empty
// parameter matches records stored with an empty value.
func queryParam(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &v
}
