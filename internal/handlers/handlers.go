// Package handlers implements the HTTP API over the metadata client.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amaumene/gotpb/internal/cache"
	"github.com/amaumene/gotpb/internal/constants"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/tpb"
	"github.com/amaumene/gotpb/pkg/tpb/categories"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/amaumene/gotpb/pkg/tpb/query"
	"github.com/amaumene/gotpb/pkg/tpb/sorter"
	"github.com/gin-gonic/gin"
)

// Client is the part of *tpb.Client the handlers use.
type Client interface {
	Search(ctx context.Context, q models.SearchQuery) (*tpb.SearchResult, error)
	Top100(ctx context.Context, category categories.Category, last48h bool) (*tpb.SearchResult, error)
	Torrent(ctx context.Context, id uint64) (*models.TorrentDetail, error)
	Files(ctx context.Context, id uint64) (*tpb.FileList, error)
	RequestFor(q models.SearchQuery) models.RequestSpec
	CategoryTable() *categories.Table
	Dialect() query.Dialect
}

// ResultStore persists results beyond the in-memory cache.
type ResultStore interface {
	Get(key string, maxAge time.Duration, v any) (bool, error)
	Put(key string, v any) error
}

// Handler handles HTTP requests.
type Handler struct {
	client Client
	cache  *cache.LRUCache[*tpb.SearchResult]
	store  ResultStore
	ttl    time.Duration
	sorter *sorter.RecordSorter
	logger logger.Logger
}

// New creates a Handler. Search and top-100 results are cached per request shape.
func New(client Client, results *cache.LRUCache[*tpb.SearchResult], log logger.Logger) *Handler {
	return &Handler{
		client: client,
		cache:  results,
		sorter: sorter.NewRecordSorter(),
		logger: log,
	}
}

// SetStore adds a persistent second tier behind the memory cache. Stored
// results older than ttl are ignored.
func (h *Handler) SetStore(store ResultStore, ttl time.Duration) {
	h.store = store
	h.ttl = ttl
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.handleHealth)
	r.GET("/categories", h.handleCategories)
	r.GET("/search", h.handleSearch)
	r.GET("/top100", h.handleTop100)
	r.GET("/top100/:category", h.handleTop100)
	r.GET("/torrent/:id", h.handleTorrent)
	r.GET("/torrent/:id/files", h.handleFiles)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    constants.AppName,
		"version": constants.AppVersion,
		"dialect": h.client.Dialect(),
		"cache":   h.cache.Stats(),
	})
}

func (h *Handler) handleCategories(c *gin.Context) {
	table := h.client.CategoryTable()
	c.JSON(http.StatusOK, gin.H{
		"version":    table.Version(),
		"categories": table.All(),
	})
}

// respondError maps client errors to HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	errorType := "INTERNAL_ERROR"

	var clientErr *tpberrors.ClientError
	var failure *tpberrors.EntryParseFailure
	switch {
	case errors.As(err, &clientErr):
		errorType = clientErr.Type
		switch clientErr.Type {
		case tpberrors.ErrorTypeTransport, tpberrors.ErrorTypeUnexpectedResponseShape:
			status = http.StatusBadGateway
		case tpberrors.ErrorTypeUnsupported:
			status = http.StatusBadRequest
		case tpberrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		}
	case errors.As(err, &failure):
		status = http.StatusBadGateway
		errorType = failure.Kind
	}

	if status >= http.StatusInternalServerError {
		h.logger.Errorf("[Server] %s: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "type": errorType})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "type": "BAD_REQUEST"})
}
