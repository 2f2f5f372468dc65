package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go.ngs.io/ocean-navigator/internal/logger"
)

// RouterConfig holds transport settings.
type RouterConfig struct {
	// AllowedOrigins for CORS. Empty allows all origins.
	AllowedOrigins []string
	// RequestTimeout bounds each request context. Zero disables it.
	RequestTimeout time.Duration
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.log), requestTimeout(cfg.RequestTimeout))

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader, "X-Tile-Source"}
	router.Use(cors.New(corsConfig))

	// API v1 routes.
	v1 := router.Group("/v1")
	if h.svc.Catalog != nil {
		datasets := v1.Group("/datasets")
		datasets.GET("", h.ListDatasets)
		datasets.GET("/:dataset/timestamps", h.GetTimestamps)
		datasets.GET("/:dataset/depths", h.GetDepths)
	}
	if h.svc.Sample != nil {
		v1.POST("/sample", h.PostSample)
	}
	if h.svc.Area != nil {
		v1.POST("/area", h.PostArea)
	}
	if h.svc.Tiles != nil {
		v1.GET("/tiles/:layer/:zoom/:x/:y", h.GetTile)
	}

	// Health check.
	router.GET("/health", h.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	return router
}

const requestIDHeader = "X-Request-ID"

// requestLogger tags the request context with an id and logs the outcome.
func requestLogger(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = logger.NewID()
		}
		c.Header(requestIDHeader, reqID)
		ctx := logger.WithRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		level := zerolog.DebugLevel
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		logger.FromContext(ctx, log).WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
