package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/service"
)

const defaultWatchLimit = 100

// WatchHandler expone la ingesta y consulta de muestras del reloj.
type WatchHandler struct {
	logger *zap.Logger
	watch  *service.WatchService
	now    func() time.Time
}

func NewWatchHandler(logger *zap.Logger, watch *service.WatchService) *WatchHandler {
	return &WatchHandler{logger: logger, watch: watch, now: time.Now}
}

// Create maneja POST /api/watch.
func (h *WatchHandler) Create(c *gin.Context) {
	var req domain.SamplePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid watch sample", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sample, err := h.watch.Create(c.Request.Context(), req.Sample())
	if err != nil {
		h.logger.Error("create watch sample failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store watch data"})
		return
	}
	c.JSON(http.StatusOK, sample)
}

// CreateBatch maneja POST /api/watch/batch con {"data": [...]}.
func (h *WatchHandler) CreateBatch(c *gin.Context) {
	var req struct {
		Data []domain.SamplePayload `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid watch batch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	samples := make([]domain.WatchSample, 0, len(req.Data))
	for _, item := range req.Data {
		samples = append(samples, item.Sample())
	}
	stored, err := h.watch.CreateBatch(c.Request.Context(), samples)
	if errors.Is(err, service.ErrEmptyBatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty batch"})
		return
	}
	if err != nil {
		h.logger.Error("create watch batch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store watch data"})
		return
	}
	c.JSON(http.StatusOK, stored)
}

// List maneja GET /api/watch.
func (h *WatchHandler) List(c *gin.Context) {
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
	limit, err := parseLimit(c.Query("limit"), defaultWatchLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	samples, err := h.watch.List(c.Request.Context(), domain.SampleFilter{
		DeviceID: strings.TrimSpace(c.Query("device_id")),
		From:     from,
		To:       to,
		Limit:    limit,
	})
	if err != nil {
		h.logger.Error("list watch samples failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list watch data"})
		return
	}
	if samples == nil {
		samples = []domain.WatchSample{}
	}
	c.JSON(http.StatusOK, samples)
}

// Latest maneja GET /api/watch/latest; responde null si no hay muestras.
func (h *WatchHandler) Latest(c *gin.Context) {
	sample, ok, err := h.watch.Latest(c.Request.Context(), strings.TrimSpace(c.Query("device_id")))
	if err != nil {
		h.logger.Error("latest watch sample failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load watch data"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// Analytics maneja GET /api/watch/analytics?period=day|week|month.
func (h *WatchHandler) Analytics(c *gin.Context) {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be day, week or month"})
		return
	}
	target := h.now()
	if raw := c.Query("target_date"); raw != "" {
		// Una fecha sola se interpreta en la zona de las estadísticas.
		if day, derr := service.ParseTargetDate(raw, target, h.watch.Location()); derr == nil {
			target = day
		} else if target, err = domain.ParseTimestamp(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_date"})
			return
		}
	}

	analytics, err := h.watch.Analytics(c.Request.Context(), period, target, strings.TrimSpace(c.Query("device_id")))
	if err != nil {
		h.logger.Error("watch analytics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute analytics"})
		return
	}
	c.JSON(http.StatusOK, analytics)
}
