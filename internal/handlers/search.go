package handlers

import (
	"net/http"

	"github.com/amaumene/gotpb/pkg/tpb"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) handleSearch(c *gin.Context) {
	table := h.client.CategoryTable()

	category, err := parseCategory(table, c.Query("cat"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	sort, err := parseSort(c.Query("sort"), c.Query("order"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	page, err := parseNonNegative("page", c.Query("page"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	minConfidence, err := parseConfidence(c.Query("min_confidence"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	q := models.SearchQuery{
		Text:     c.Query("q"),
		Category: category,
		Sort:     sort,
		Page:     page,
	}
	rs := h.client.RequestFor(q)

	result, cached, err := h.cached(rs, func() (*tpb.SearchResult, error) {
		return h.client.Search(c.Request.Context(), q)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondList(c, rs, result, cached, minConfidence)
}

func (h *Handler) handleTop100(c *gin.Context) {
	stripJSONExtension(c, "category")

	category, err := parseCategory(h.client.CategoryTable(), c.Param("category"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	last48h := c.Query("48h") == "true" || c.Query("48h") == "1"

	// top lists have no query text; key them on their own
	key := models.RequestSpec{Method: http.MethodGet, Path: "top100", Params: []models.Param{
		{Key: "cat", Value: category.String()},
		{Key: "48h", Value: boolString(last48h)},
	}}
	result, cached, err := h.cached(key, func() (*tpb.SearchResult, error) {
		return h.client.Top100(c.Request.Context(), category, last48h)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondList(c, result.Request, result, cached, 0)
}

// cached serves a result from the memory cache, then the store, or fetches
// and stores it. Failed calls are not cached.
func (h *Handler) cached(rs models.RequestSpec, fetch func() (*tpb.SearchResult, error)) (*tpb.SearchResult, bool, error) {
	key := rs.Key()
	if result, ok := h.cache.Get(key); ok {
		h.logger.Debugf("[Server] cache hit: %s", key)
		return result, true, nil
	}

	if h.store != nil {
		var stored tpb.SearchResult
		found, err := h.store.Get(key, h.ttl, &stored)
		if err != nil {
			h.logger.Warnf("[Server] store read failed: %v", err)
		} else if found {
			h.logger.Debugf("[Server] store hit: %s", key)
			h.cache.Set(key, &stored)
			return &stored, true, nil
		}
	}

	result, err := fetch()
	if err != nil {
		return nil, false, err
	}
	h.cache.Set(key, result)
	if h.store != nil {
		if err := h.store.Put(key, result); err != nil {
			h.logger.Warnf("[Server] store write failed: %v", err)
		}
	}
	return result, false, nil
}

func (h *Handler) respondList(c *gin.Context, rs models.RequestSpec, result *tpb.SearchResult, cached bool, minConfidence float64) {
	records := h.sorter.FilterByMinConfidence(result.Records, minConfidence)
	c.JSON(http.StatusOK, listResponse{
		Request:  rs.Key(),
		Cached:   cached,
		Count:    len(records),
		Records:  toRecordViews(records),
		Failures: toFailureViews(result.Failures),
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
