// Package httpapi serves the Session API over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "hda"

// SessionService is the slice of the orchestrator the HTTP layer drives.
type SessionService interface {
	StartSession(ctx context.Context, cmd application.StartSessionCommand) (string, error)
	SendMessage(ctx context.Context, cmd application.SendMessageCommand) (application.TurnResult, error)
	GetTrace(ctx context.Context, id string) (application.SessionTrace, error)
	ListSessions(ctx context.Context) ([]application.SessionSummary, error)
}

var _ SessionService = (*application.Orchestrator)(nil)

type Options struct {
	Logger *zap.Logger
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
}

func NewRouter(service SessionService, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(requestLogger(logger))

	h := &handlers{service: service, logger: logger}

	router.GET("/health", h.health)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/sessions", h.startSession)
		v1.GET("/sessions", h.listSessions)
		v1.POST("/sessions/:id/messages", h.sendMessage)
		v1.GET("/sessions/:id/trace", h.getTrace)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("session_id", id))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("http request", fields...)
			return
		}
		logger.Debug("http request", fields...)
	}
}
