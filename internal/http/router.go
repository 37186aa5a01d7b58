package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"emotion-diary/internal/service"
)

const requestIDHeader = "X-Request-ID"

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	Entries  *EntryHandler
	Stats    *StatsHandler
	Watch    *WatchHandler
	Emotions *EmotionHandler
	Models   *ModelHandler
}

// NewRouter configura el router de Gin con middlewares y rutas de la API.
func NewRouter(logger *zap.Logger, h Handlers, tokens *service.TokenService) *gin.Engine {
	r := gin.New()

	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "Emotion Diary API",
			"version":   "2.0",
			"watch_api": true,
			"ml_api":    true,
		})
	})

	api := r.Group("/api")

	api.POST("/entries", h.Entries.Create)
	api.GET("/entries", h.Entries.List)

	stats := api.Group("/stats")
	stats.GET("/daily", h.Stats.Daily)
	stats.GET("/weekly", h.Stats.Weekly)
	stats.GET("/monthly", h.Stats.Monthly)
	stats.GET("/monthly/export", h.Stats.MonthlyExport)

	watch := api.Group("/watch")
	watch.POST("", h.Watch.Create)
	watch.POST("/batch", h.Watch.CreateBatch)
	watch.GET("", h.Watch.List)
	watch.GET("/latest", h.Watch.Latest)
	watch.GET("/analytics", h.Watch.Analytics)

	emotions := api.Group("/emotions")
	emotions.POST("", h.Emotions.CreateLabel)
	emotions.GET("", h.Emotions.ListLabels)
	emotions.GET("/predict", h.Emotions.Predict)

	models := api.Group("/models")
	models.GET("/status", h.Models.Status)
	models.GET("", h.Models.ListVersions)
	operator := models.Group("", OperatorAuthMiddleware(tokens))
	operator.POST("/reload", h.Models.Reload)
	operator.POST("/:version/activate", h.Models.Activate)

	return r
}

// requestIDMiddleware reutiliza X-Request-ID o genera uno nuevo.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("request_id", c.GetString(requestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
