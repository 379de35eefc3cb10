package handlers

import (
	"briefdraft-backend/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every API route onto a gin engine
func NewRouter(briefs *BriefHandler, memory *MemoryHandler, files *FileHandler, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger.Component(log, "http")))

	api := r.Group("/api")
	api.Use(CORSMiddleware())
	{
		api.GET("/health", briefs.Health)

		// Drafting endpoints
		api.POST("/briefs/generate", briefs.GenerateBrief)
		api.POST("/briefs/refine", briefs.RefineBrief)
		api.POST("/case-law/search", briefs.SearchCaseLaw)

		// Conversation memory
		api.GET("/memory", memory.ListMemory)
		api.POST("/memory", memory.SaveMemory)

		// File endpoints
		api.POST("/documents/upload", files.UploadDocuments)
		api.GET("/files/*path", files.GetFile)

		// Preflight for every API path
		api.OPTIONS("/*path", func(c *gin.Context) {})
	}

	return r
}
