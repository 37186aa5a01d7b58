package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/service"
)

// EntryHandler expone las entradas del diario.
type EntryHandler struct {
	logger  *zap.Logger
	entries *service.EntryService
}

func NewEntryHandler(logger *zap.Logger, entries *service.EntryService) *EntryHandler {
	return &EntryHandler{logger: logger, entries: entries}
}

// Create maneja POST /api/entries.
func (h *EntryHandler) Create(c *gin.Context) {
	var req struct {
		Content *string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create entry request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), *req.Content)
	if err != nil {
		h.logger.Error("create entry failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create entry"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// List maneja GET /api/entries?start_date&end_date.
func (h *EntryHandler) List(c *gin.Context) {
	from, err := optionalTime(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	to, err := optionalTime(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	entries, err := h.entries.List(c.Request.Context(), domain.EntryFilter{From: from, To: to})
	if err != nil {
		h.logger.Error("list entries failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list entries"})
		return
	}
	if entries == nil {
		entries = []domain.DiaryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
