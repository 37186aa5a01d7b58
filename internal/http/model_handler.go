package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emotion-diary/internal/domain"
	"emotion-diary/internal/repository"
	"emotion-diary/internal/service"
)

// ModelHandler expone el estado del clasificador en memoria y las versiones registradas.
type ModelHandler struct {
	logger    *zap.Logger
	biometric *service.BiometricService
	models    repository.ModelRepository
}

func NewModelHandler(logger *zap.Logger, biometric *service.BiometricService, models repository.ModelRepository) *ModelHandler {
	return &ModelHandler{logger: logger, biometric: biometric, models: models}
}

// modelStatusResponse separa el snapshot en memoria de la fila activa;
// pueden diferir hasta el próximo reload.
type modelStatusResponse struct {
	Runtime service.BiometricStatus `json:"runtime"`
	Active  *domain.ModelMetadata   `json:"active"`
	InSync  bool                    `json:"in_sync"`
}

func (h *ModelHandler) status(c *gin.Context) (modelStatusResponse, error) {
	resp := modelStatusResponse{Runtime: h.biometric.Status()}
	active, err := h.models.Active(c.Request.Context())
	if errors.Is(err, repository.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return resp, err
	}
	resp.Active = &active
	resp.InSync = resp.Runtime.Loaded && resp.Runtime.Version == active.Version
	return resp, nil
}

// Status maneja GET /api/models/status.
func (h *ModelHandler) Status(c *gin.Context) {
	resp, err := h.status(c)
	if err != nil {
		h.logger.Error("active model lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load model metadata"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListVersions maneja GET /api/models.
func (h *ModelHandler) ListVersions(c *gin.Context) {
	versions, err := h.models.ListVersions(c.Request.Context())
	if err != nil {
		h.logger.Error("list model versions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list models"})
		return
	}
	if versions == nil {
		versions = []domain.ModelMetadata{}
	}
	c.JSON(http.StatusOK, versions)
}

// Reload maneja POST /api/models/reload (operador).
func (h *ModelHandler) Reload(c *gin.Context) {
	runtime := h.biometric.Reload()
	if claims, ok := GetOperatorClaims(c); ok {
		h.logger.Info("emotion model reloaded",
			zap.String("operator", claims.Operator),
			zap.Bool("loaded", runtime.Loaded),
			zap.String("version", runtime.Version),
		)
	}
	resp, err := h.status(c)
	if err != nil {
		h.logger.Error("active model lookup failed", zap.Error(err))
		c.JSON(http.StatusOK, modelStatusResponse{Runtime: runtime})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activate maneja POST /api/models/:version/activate (operador).
func (h *ModelHandler) Activate(c *gin.Context) {
	version := c.Param("version")
	if err := h.models.Activate(c.Request.Context(), version); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "model version not found"})
			return
		}
		h.logger.Error("activate model failed", zap.String("version", version), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not activate model"})
		return
	}
	resp, err := h.status(c)
	if err != nil {
		h.logger.Error("active model lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load model metadata"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
