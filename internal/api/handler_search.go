package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paperbase/internal/model"
	"paperbase/internal/search"
)

// Searcher runs a ranked query over the caller's indexed documents.
type Searcher interface {
	Search(ctx context.Context, queryText string, ownerID int, filters model.SearchFilters) ([]search.Result, error)
}

type SearchHandler struct {
	engine Searcher
	logger *zap.Logger
}

func NewSearchHandler(engine Searcher, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{engine: engine, logger: logger}
}

// Search handles GET /search?q=...&file_type=...&tags=a,b&created_after=...
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be empty"})
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.engine.Search(c.Request.Context(), query, userID, filters)
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func parseFilters(c *gin.Context) (model.SearchFilters, error) {
	var f model.SearchFilters

	if v := c.Query("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidTimestamp("created_after")
		}
		f.CreatedAfter = &t
	}
	if v := c.Query("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidTimestamp("created_before")
		}
		f.CreatedBefore = &t
	}
	f.FileType = strings.ToLower(strings.TrimSpace(c.Query("file_type")))
	f.Tags = splitTags(c.Query("tags"))
	return f, nil
}

type filterError string

func (e filterError) Error() string { return string(e) }

func errInvalidTimestamp(field string) error {
	return filterError(field + " must be an RFC3339 timestamp")
}
