package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ludo-technologies/pygather/internal/version"
)

// maxBodyBytes bounds posted sources and notebooks
const maxBodyBytes = 16 << 20

// RegisterRoutes mounts the v1 API on group
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	v1.POST("/slice", h.HandleSlice)
	v1.POST("/dependencies", h.HandleDependencies)
	v1.GET("/health", h.HandleHealth)
}

// NewRouter builds the engine with request IDs, access logging, the v1
// API and the Prometheus endpoint. Every response names the server version.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), serverHeader(version.UserAgent()), requestContext(h.logger), limitBody(maxBodyBytes))

	RegisterRoutes(router.Group("/v1"), h)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// requestContext assigns the request ID and logs each request once it
// completes
func requestContext(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := getOrCreateRequestID(c)
		c.Next()
		logger.Info("Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func serverHeader(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Server", value)
		c.Next()
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
