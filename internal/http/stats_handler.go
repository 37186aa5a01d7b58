package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emotion-diary/internal/export"
	"emotion-diary/internal/service"
)

const (
	SourceEntries = "entries"
	SourceLabels  = "labels"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// StatsHandler expone las estadísticas temporales; source elige entre entradas y etiquetas.
type StatsHandler struct {
	logger  *zap.Logger
	sources map[string]*service.StatsService
	loc     *time.Location
	now     func() time.Time
}

func NewStatsHandler(logger *zap.Logger, entries, labels *service.StatsService, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{
		logger:  logger,
		sources: map[string]*service.StatsService{SourceEntries: entries, SourceLabels: labels},
		loc:     loc,
		now:     time.Now,
	}
}

// request resuelve servicio y fecha; escribe la respuesta de error si algo falla.
func (h *StatsHandler) request(c *gin.Context) (*service.StatsService, time.Time, bool) {
	source := strings.ToLower(strings.TrimSpace(c.DefaultQuery("source", SourceEntries)))
	svc, ok := h.sources[source]
	if !ok || svc == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source"})
		return nil, time.Time{}, false
	}
	date, err := service.ParseTargetDate(c.Query("target_date"), h.now(), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_date, expected YYYY-MM-DD"})
		return nil, time.Time{}, false
	}
	return svc, date, true
}

func (h *StatsHandler) fail(c *gin.Context, what string, err error) {
	if errors.Is(err, service.ErrInvalidDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(what+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute statistics"})
}

// Daily maneja GET /api/stats/daily.
func (h *StatsHandler) Daily(c *gin.Context) {
	svc, date, ok := h.request(c)
	if !ok {
		return
	}
	stat, err := svc.Daily(c.Request.Context(), date)
	if err != nil {
		h.fail(c, "daily stats", err)
		return
	}
	c.JSON(http.StatusOK, stat)
}

// Weekly maneja GET /api/stats/weekly.
func (h *StatsHandler) Weekly(c *gin.Context) {
	svc, date, ok := h.request(c)
	if !ok {
		return
	}
	stat, err := svc.Weekly(c.Request.Context(), date)
	if err != nil {
		h.fail(c, "weekly stats", err)
		return
	}
	c.JSON(http.StatusOK, stat)
}

// Monthly maneja GET /api/stats/monthly.
func (h *StatsHandler) Monthly(c *gin.Context) {
	svc, date, ok := h.request(c)
	if !ok {
		return
	}
	stat, err := svc.Monthly(c.Request.Context(), date)
	if err != nil {
		h.fail(c, "monthly stats", err)
		return
	}
	c.JSON(http.StatusOK, stat)
}

// MonthlyExport maneja GET /api/stats/monthly/export y devuelve un xlsx.
func (h *StatsHandler) MonthlyExport(c *gin.Context) {
	svc, date, ok := h.request(c)
	if !ok {
		return
	}
	stat, err := svc.Monthly(c.Request.Context(), date)
	if err != nil {
		h.fail(c, "monthly export", err)
		return
	}
	data, err := export.MonthlyWorkbook(stat)
	if err != nil {
		h.logger.Error("monthly workbook failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build workbook"})
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+export.MonthlyFileName(stat))
	c.Data(http.StatusOK, xlsxContentType, data)
}
