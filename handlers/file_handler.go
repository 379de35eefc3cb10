package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"regexp"
	"strings"
	"unicode"

	"briefdraft-backend/extract"
	"briefdraft-backend/logger"
	"briefdraft-backend/models"
	"briefdraft-backend/service"
	"briefdraft-backend/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxFileSize is the per-file upload limit
const DefaultMaxFileSize = 10 * 1024 * 1024

// FileHandler handles HTTP requests for file operations
type FileHandler struct {
	documents    storage.Storage
	uploads      storage.Storage
	briefService *service.BriefService
	maxFileSize  int64
	log          logrus.FieldLogger
}

// NewFileHandler creates a new file handler. A non-positive maxFileSize
// selects DefaultMaxFileSize.
func NewFileHandler(roots *storage.Roots, briefService *service.BriefService, maxFileSize int64, log logrus.FieldLogger) *FileHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &FileHandler{
		documents:    roots.Documents,
		uploads:      roots.Uploads,
		briefService: briefService,
		maxFileSize:  maxFileSize,
		log:          logger.Component(log, "file_handler"),
	}
}

// UploadResponse lists the stored files of one upload request
type UploadResponse struct {
	Items    []models.StoredFile `json:"items"`
	ClientID string              `json:"client_id"`
	CaseID   string              `json:"case_id"`
}

// UploadDocuments handles POST /api/documents/upload
func (h *FileHandler) UploadDocuments(c *gin.Context) {
	clientID := c.PostForm("client_id")
	caseID := c.PostForm("case_id")

	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}
	headers := form.File["file"]

	for _, fh := range headers {
		if fh.Size > h.maxFileSize {
			respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
				fmt.Sprintf("File %s exceeds maximum of %d bytes", fh.Filename, h.maxFileSize))
			return
		}
	}

	folder := UploadFolder(clientID, caseID)
	items := make([]models.StoredFile, 0, len(headers))
	for _, fh := range headers {
		item, err := h.storeUpload(c, folder, fh, clientID, caseID)
		if err != nil {
			h.log.WithError(err).WithField("file", fh.Filename).Error("upload failed")
			respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED",
				fmt.Sprintf("Failed to upload file: %v", err))
			return
		}
		items = append(items, *item)
	}

	respondOK(c, http.StatusCreated, UploadResponse{
		Items:    items,
		ClientID: clientID,
		CaseID:   caseID,
	})
}

func (h *FileHandler) storeUpload(c *gin.Context, folder string, fh *multipart.FileHeader, clientID, caseID string) (*models.StoredFile, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// Size was checked against the header; the limit guards lying clients
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", h.maxFileSize)
	}

	name := SecureFilename(fh.Filename)
	if name == "" {
		name = "arquivo"
	}
	object := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + name
	key := folder + "/" + object
	mimeType := mimetype.Detect(data).String()

	if err := h.uploads.Put(c.Request.Context(), key, bytes.NewReader(data), mimeType); err != nil {
		return nil, err
	}

	h.indexUpload(name, data, clientID, caseID)

	return &models.StoredFile{
		ID:       strings.TrimSuffix(object, path.Ext(object)),
		Name:     name,
		Size:     int64(len(data)),
		URL:      FileURL(key),
		MimeType: mimeType,
	}, nil
}

// indexUpload makes readable uploads available to retrieval. Failures only
// cost retrieval quality, so they are logged.
func (h *FileHandler) indexUpload(name string, data []byte, clientID, caseID string) {
	if h.briefService == nil || !extract.Supported(name) {
		return
	}
	text, err := extract.Text(name, data)
	if err != nil {
		h.log.WithError(err).WithField("file", name).Warn("failed to extract upload text")
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	h.briefService.IndexClientDocument(text, clientID, caseID, name)
}

// GetFile handles GET /api/files/*path
func (h *FileHandler) GetFile(c *gin.Context) {
	key, err := storage.CleanKey(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PATH", "Invalid file path")
		return
	}

	reader, err := h.open(c, key)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("key", key).Error("download failed")
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED",
			fmt.Sprintf("Failed to download file: %v", err))
		return
	}
	defer reader.Close()

	contentType := storage.ContentType(key)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", path.Base(key)))
	c.DataFromReader(http.StatusOK, -1, contentType, reader, nil)
}

// open looks in generated documents first, then uploads
func (h *FileHandler) open(c *gin.Context, key string) (io.ReadCloser, error) {
	reader, err := h.documents.Open(c.Request.Context(), key)
	if !errors.Is(err, storage.ErrNotFound) {
		return reader, err
	}
	return h.uploads.Open(c.Request.Context(), key)
}

// UploadFolder names the upload folder of a client and case
func UploadFolder(clientID, caseID string) string {
	clientSlug := SecureFilename(clientID)
	if clientSlug == "" {
		clientSlug = "tmp"
	}
	caseSlug := SecureFilename(caseID)
	if caseSlug == "" {
		caseSlug = "semproc"
	}
	return clientSlug + "_" + caseSlug
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a name to ASCII letters, digits, "_", "." and "-".
// Accents are folded ("petição" becomes "peticao"), whitespace and path
// separators become "_", and leading or trailing dots and underscores are
// dropped.
func SecureFilename(name string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	), name)
	if err != nil {
		return ""
	}

	folded = strings.NewReplacer("/", " ", "\\", " ").Replace(folded)
	folded = strings.Join(strings.Fields(folded), "_")
	folded = unsafeFilenameChars.ReplaceAllString(folded, "")
	return strings.Trim(folded, "._")
}
