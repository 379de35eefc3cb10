package handlers

import (
	"errors"
	"net/http"
	"strings"

	"briefdraft-backend/formatter"
	"briefdraft-backend/llm"
	"briefdraft-backend/logger"
	"briefdraft-backend/models"
	"briefdraft-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefaultBriefType is used when the request names no brief type
const DefaultBriefType = "Petição inicial"

// BriefHandler handles HTTP requests for drafting
type BriefHandler struct {
	briefService  *service.BriefService
	memoryService *service.MemoryService
	log           logrus.FieldLogger
}

// NewBriefHandler creates a new brief handler
func NewBriefHandler(briefService *service.BriefService, memoryService *service.MemoryService, log logrus.FieldLogger) *BriefHandler {
	return &BriefHandler{
		briefService:  briefService,
		memoryService: memoryService,
		log:           logger.Component(log, "brief_handler"),
	}
}

// Attachment references a previously uploaded file
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// BriefContext is the case information sent with every drafting request
type BriefContext struct {
	BriefType   string       `json:"brief_type"`
	Area        string       `json:"area"`
	ClientID    string       `json:"client_id"`
	CaseID      string       `json:"case_id"`
	Documents   []string     `json:"documents"`
	Attachments []Attachment `json:"attachments"`
}

// GenerateBriefRequest represents the request body for drafting a brief
type GenerateBriefRequest struct {
	Context BriefContext        `json:"context"`
	History models.ChatMessages `json:"history"`
	Prompt  string              `json:"prompt"`
}

// RefineBriefRequest represents the request body for revising a brief
type RefineBriefRequest struct {
	Context     BriefContext        `json:"context"`
	History     models.ChatMessages `json:"history"`
	BaseText    string              `json:"base_text" binding:"required"`
	Instruction string              `json:"instruction" binding:"required"`
}

// SearchCaseLawRequest represents the request body for a case-law search
type SearchCaseLawRequest struct {
	Query string `json:"query" binding:"required"`
	Area  string `json:"area"`
}

// BriefResponse is returned by the generate and refine endpoints
type BriefResponse struct {
	Text        string `json:"text"`
	DownloadURL string `json:"download_url"`
}

// FileURL is the public download path of a stored file
func FileURL(key string) string {
	return "/api/files/" + key
}

// ExtractFactsAndRelief reads the case facts and requested relief out of the
// conversation. Facts come from the first user message tagged "fatos", or
// the first user message when none is tagged; relief from the last user
// message tagged "pedidos" or containing "Pedidos:".
func ExtractFactsAndRelief(history models.ChatMessages, prompt string) (facts, relief string) {
	for _, m := range history {
		if m.Role != "user" {
			continue
		}
		if m.Meta == "fatos" {
			facts = m.Content
			break
		}
		if facts == "" {
			facts = m.Content
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role == "user" && (m.Meta == "pedidos" || strings.Contains(m.Content, "Pedidos:")) {
			relief = m.Content
			break
		}
	}

	if facts == "" {
		facts = prompt
	}
	if facts == "" {
		facts = "—"
	}
	if relief == "" {
		relief = service.DefaultRelief
	}
	return facts, relief
}

// GenerateBrief handles POST /api/briefs/generate
func (h *BriefHandler) GenerateBrief(c *gin.Context) {
	var req GenerateBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	briefType := strings.TrimSpace(req.Context.BriefType)
	if briefType == "" {
		briefType = DefaultBriefType
	}
	facts, relief := ExtractFactsAndRelief(req.History, req.Prompt)

	artifact, err := h.briefService.GenerateBrief(c.Request.Context(), models.GenerationRequest{
		BriefType:       briefType,
		Facts:           facts,
		RequestedRelief: relief,
		Documents:       req.Context.Documents,
		ClientID:        req.Context.ClientID,
		CaseID:          req.Context.CaseID,
		Area:            req.Context.Area,
	})
	if err != nil {
		h.respondDraftError(c, err)
		return
	}

	// The brief is already stored; a lost memory snapshot only costs history
	text := artifact.Text
	_, err = h.memoryService.SaveMemory(c.Request.Context(), service.SaveMemoryRequest{
		ClientID:  optional(req.Context.ClientID),
		CaseID:    optional(req.Context.CaseID),
		Messages:  req.History,
		LastBrief: &text,
	})
	if err != nil {
		h.log.WithError(err).WithField("client_id", req.Context.ClientID).Warn("failed to save conversation memory")
	}

	respondOK(c, http.StatusOK, BriefResponse{
		Text:        artifact.Text,
		DownloadURL: FileURL(artifact.FileHandle),
	})
}

// RefineBrief handles POST /api/briefs/refine
func (h *BriefHandler) RefineBrief(c *gin.Context) {
	var req RefineBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	artifact, err := h.briefService.RefineBrief(c.Request.Context(), service.RefineRequest{
		Area:        req.Context.Area,
		BaseText:    req.BaseText,
		Instruction: req.Instruction,
		ClientID:    req.Context.ClientID,
		CaseID:      req.Context.CaseID,
	})
	if err != nil {
		h.respondDraftError(c, err)
		return
	}

	respondOK(c, http.StatusOK, BriefResponse{
		Text:        artifact.Text,
		DownloadURL: FileURL(artifact.FileHandle),
	})
}

func (h *BriefHandler) respondDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, llm.ErrGenerationFailed):
		respondError(c, http.StatusBadGateway, "GENERATION_FAILED", "drafting failed")
	case errors.Is(err, formatter.ErrFormattingFailed):
		respondError(c, http.StatusInternalServerError, "FORMATTING_FAILED", "could not build the document")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// SearchCaseLaw handles POST /api/case-law/search
func (h *BriefHandler) SearchCaseLaw(c *gin.Context) {
	var req SearchCaseLawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	results, err := h.briefService.SearchCaseLaw(c.Request.Context(), req.Query, req.Area)
	if errors.Is(err, service.ErrInvalidRequest) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err != nil {
		h.log.WithError(err).Warn("case-law search failed")
		respondError(c, http.StatusBadGateway, "SEARCH_FAILED", "case-law search failed")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"query":   req.Query,
		"results": results,
	})
}

// Health handles GET /api/health
func (h *BriefHandler) Health(c *gin.Context) {
	generation, search := h.briefService.DemoMode()
	respondOK(c, http.StatusOK, gin.H{
		"status": "ok",
		"model":  h.briefService.GeneratorModel(),
		"demo": gin.H{
			"generation": generation,
			"search":     search,
		},
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
