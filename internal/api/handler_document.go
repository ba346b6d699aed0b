package api

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	contracts "paperbase/contracts/mq"
	"paperbase/internal/model"
	"paperbase/internal/raster"
	"paperbase/pkg/trace"
)

// DocumentStore is the document persistence surface the API needs.
type DocumentStore interface {
	Create(ctx context.Context, d *model.Document) (int, error)
	FindByID(ctx context.Context, id int) (*model.Document, error)
	UpdateStatus(ctx context.Context, id int, next model.Status) error
	UpdateTitleNotes(ctx context.Context, id int, title, notes string) error
	Delete(ctx context.Context, id, userID int) error
}

// StatusReader exposes the per-stage processing history.
type StatusReader interface {
	History(ctx context.Context, documentID int) ([]model.ProcessingStatusRecord, error)
}

// TaskPublisher enqueues ingestion runs.
type TaskPublisher interface {
	Publish(routingKey string, payload any) error
}

// MetadataReindexer refreshes the synthetic title/notes page after edits.
type MetadataReindexer interface {
	ReindexMetadata(ctx context.Context, documentID int) error
}

type DocumentHandler struct {
	documents   DocumentStore
	status      StatusReader
	publisher   TaskPublisher
	reindexer   MetadataReindexer
	storageRoot string
	logger      *zap.Logger
}

func NewDocumentHandler(
	documents DocumentStore,
	status StatusReader,
	publisher TaskPublisher,
	reindexer MetadataReindexer,
	storageRoot string,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documents:   documents,
		status:      status,
		publisher:   publisher,
		reindexer:   reindexer,
		storageRoot: storageRoot,
		logger:      logger,
	}
}

// Upload handles POST /documents. Files are stored in upload order; their
// order fixes the global page numbering of the document.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	title := c.PostForm("title")
	notes := c.PostForm("notes")
	tags := splitTags(c.PostForm("tags"))

	for _, file := range files {
		if ext := strings.ToLower(filepath.Ext(file.Filename)); !raster.Supported(ext) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type: %s", file.Filename)})
			return
		}
	}

	stored := make([]string, 0, len(files))
	for _, file := range files {
		path, err := h.storeUpload(file)
		if err != nil {
			h.logger.Error("Failed to store upload", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
			return
		}
		stored = append(stored, path)
	}

	docID, err := h.documents.Create(c.Request.Context(), &model.Document{
		UserID:      userID,
		Title:       title,
		Notes:       notes,
		Status:      model.StatusUploaded,
		SourceFiles: stored,
		Tags:        tags,
	})
	if err != nil {
		h.logger.Error("Failed to create document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create document"})
		return
	}

	if err := h.publishIngest(c.Request.Context(), docID, userID); err != nil {
		h.logger.Error("Failed to publish ingest task",
			zap.Int("document_id", docID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_id": docID,
		"status":      model.StatusUploaded,
	})
}

// Get handles GET /documents/:id, returning the document and its stage history.
func (h *DocumentHandler) Get(c *gin.Context) {
	_, doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	history, err := h.status.History(c.Request.Context(), doc.ID)
	if err != nil {
		h.logger.Error("Failed to load status history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document": doc,
		"history":  history,
	})
}

// UpdateMetadata handles PATCH /documents/:id, editing title/notes and
// re-indexing the synthetic metadata page.
func (h *DocumentHandler) UpdateMetadata(c *gin.Context) {
	_, doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	if err := h.documents.UpdateTitleNotes(ctx, doc.ID, req.Title, req.Notes); err != nil {
		h.logger.Error("Failed to update metadata", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update document"})
		return
	}

	if doc.Status == model.StatusReady {
		if err := h.reindexer.ReindexMetadata(ctx, doc.ID); err != nil {
			h.logger.Error("Failed to reindex metadata page",
				zap.Int("document_id", doc.ID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Reprocess handles POST /documents/:id/reprocess, the manual re-trigger
// out of the ERROR state.
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	userID, doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	if doc.Status != model.StatusError {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("document is %s, only ERROR documents can be reprocessed", doc.Status)})
		return
	}

	ctx := c.Request.Context()
	if err := h.documents.UpdateStatus(ctx, doc.ID, model.StatusUploaded); err != nil {
		h.logger.Error("Failed to reset document status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset document"})
		return
	}
	if err := h.publishIngest(ctx, doc.ID, userID); err != nil {
		h.logger.Error("Failed to publish reprocess task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

// Delete handles DELETE /documents/:id; pages, vectors and status history
// cascade with the document row.
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, doc, ok := h.ownedDocument(c)
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), doc.ID, userID); err != nil {
		h.logger.Error("Failed to delete document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *DocumentHandler) ownedDocument(c *gin.Context) (int, *model.Document, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return 0, nil, false
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return 0, nil, false
	}

	doc, err := h.documents.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return 0, nil, false
	}
	if doc.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return 0, nil, false
	}
	return userID, doc, true
}

func (h *DocumentHandler) publishIngest(ctx context.Context, docID, userID int) error {
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		traceID = trace.GenerateTraceID()
	}
	return h.publisher.Publish(contracts.RoutingKeyDocumentIngest, contracts.DocumentIngestPayload{
		DocumentID: docID,
		UserID:     userID,
		TraceID:    traceID,
		EnqueuedAt: time.Now(),
	})
}

func (h *DocumentHandler) storeUpload(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	path := filepath.Join(h.storageRoot, "uploads", uuid.NewString()+ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return "", err
	}
	return path, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
