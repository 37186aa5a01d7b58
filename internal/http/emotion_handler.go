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

const defaultLabelLimit = 100

// EmotionHandler expone las etiquetas autodeclaradas y la predicción biométrica.
type EmotionHandler struct {
	logger    *zap.Logger
	labels    *service.LabelService
	biometric *service.BiometricService
	now       func() time.Time
}

func NewEmotionHandler(logger *zap.Logger, labels *service.LabelService, biometric *service.BiometricService) *EmotionHandler {
	return &EmotionHandler{
		logger:    logger,
		labels:    labels,
		biometric: biometric,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateLabel maneja POST /api/emotions.
func (h *EmotionHandler) CreateLabel(c *gin.Context) {
	var req struct {
		DeviceID  string   `json:"device_id"`
		Emotion   string   `json:"emotion" binding:"required"`
		Intensity *float64 `json:"intensity" binding:"required"`
		Note      *string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid emotion label request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	label, err := h.labels.Create(c.Request.Context(), service.CreateLabelInput{
		DeviceID:  req.DeviceID,
		Emotion:   req.Emotion,
		Intensity: *req.Intensity,
		Note:      req.Note,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmotion) || errors.Is(err, service.ErrInvalidIntensity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create emotion label failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save emotion label"})
		return
	}
	c.JSON(http.StatusOK, label)
}

// ListLabels maneja GET /api/emotions.
func (h *EmotionHandler) ListLabels(c *gin.Context) {
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
	limit, err := parseLimit(c.Query("limit"), defaultLabelLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	labels, err := h.labels.List(c.Request.Context(), domain.LabelFilter{
		DeviceID: strings.TrimSpace(c.Query("device_id")),
		From:     from,
		To:       to,
		Limit:    limit,
	})
	if err != nil {
		h.logger.Error("list emotion labels failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list emotion labels"})
		return
	}
	if labels == nil {
		labels = []domain.EmotionLabel{}
	}
	c.JSON(http.StatusOK, labels)
}

type predictionResponse struct {
	domain.EmotionResolution
	Timestamp time.Time `json:"timestamp"`
}

// Predict maneja GET /api/emotions/predict; siempre responde 200.
func (h *EmotionHandler) Predict(c *gin.Context) {
	deviceID := strings.TrimSpace(c.Query("device_id"))
	if deviceID == "" {
		deviceID = domain.DefaultDeviceID
	}
	at := h.now()
	res := h.biometric.Predict(c.Request.Context(), deviceID, at)
	c.JSON(http.StatusOK, predictionResponse{EmotionResolution: res, Timestamp: at})
}
