package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// NewRouter mounts every route on a fresh gin engine. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler, version string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{Status: "ok", Service: "discovery-service", Version: version})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	candidates := r.Group("/candidates/:id")
	candidates.PUT("", h.saveCandidate)
	candidates.POST("/runs", h.triggerRun)
	candidates.POST("/rescore", h.rescore)

	r.GET("/runs/:id", h.getRun)

	postings := r.Group("/postings")
	postings.GET("", h.listPostings)
	postings.GET("/:id", h.getPosting)
	postings.POST("/:id/status", h.moveStatus)
	postings.DELETE("/:id", h.deletePosting)

	r.GET("/feeds", h.listFeeds)
	return r
}

// requestLogger logs one line per request with its status and latency.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if strings.HasPrefix(c.Request.URL.Path, "/health") || c.Request.URL.Path == "/metrics" {
			log.Debug("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}
