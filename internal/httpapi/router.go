// Package httpapi exposes the query pipeline over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"StockAssistant/internal/pipeline"
)

// Runner runs one query through the pipeline.
type Runner interface {
	Run(ctx context.Context, chatID int64, query string) pipeline.Outcome
}

type queryRequest struct {
	Text   string `json:"text" binding:"required"`
	ChatID int64  `json:"chat_id"`
}

type queryResponse struct {
	RequestID string `json:"request_id"`
	Outcome   string `json:"outcome"`
	Ticker    string `json:"ticker,omitempty"`
	Reply     string `json:"reply"`
}

// NewRouter wires the health and query endpoints.
func NewRouter(runner Runner, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", Health)
	r.HEAD("/healthz", Health)

	h := &queryHandler{runner: runner}
	r.POST("/v1/query", h.Query)
	return r
}

// Health answers liveness probes.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type queryHandler struct {
	runner Runner
}

func (h *queryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	out := h.runner.Run(c.Request.Context(), req.ChatID, text)
	c.JSON(http.StatusOK, queryResponse{
		RequestID: out.RequestID,
		Outcome:   string(out.Kind),
		Ticker:    out.Ticker,
		Reply:     out.Reply,
	})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
