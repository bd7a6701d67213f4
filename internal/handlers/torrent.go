package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleTorrent(c *gin.Context) {
	stripJSONExtension(c, "id")

	id, err := parseID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	detail, err := h.client.Torrent(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"torrent":       toRecordView(detail.TorrentRecord),
		"description":   detail.Description,
		"language":      detail.Language,
		"text_language": detail.TextLanguage,
	})
}

func (h *Handler) handleFiles(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.client.Files(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var total int64
	for _, f := range list.Files {
		total += f.Size
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"count":      len(list.Files),
		"total_size": total,
		"files":      list.Files,
		"failures":   toFailureViews(list.Failures),
	})
}
