package mock

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "hda mock commerce"

// NewRouter exposes store over HTTP: one POST route per tool plus admin routes.
func NewRouter(store *Store, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	router.POST("/tools/:name", handleTool(store, logger))

	admin := router.Group("/admin")
	{
		admin.POST("/reset", func(c *gin.Context) {
			store.Reset()
			logger.Info("mock commerce state reset")
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "State reset to seed data"})
		})
		admin.GET("/state", func(c *gin.Context) {
			c.JSON(http.StatusOK, store.Snapshot())
		})
		admin.GET("/orders/:email", func(c *gin.Context) {
			email := c.Param("email")
			c.JSON(http.StatusOK, gin.H{"email": email, "orders": nonNil(store.OrdersByEmail(email))})
		})
	}

	return router
}

func handleTool(store *Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tool := c.Param("name")
		if !store.Supports(tool) {
			c.JSON(http.StatusNotFound, domain.Failed(fmt.Sprintf("unknown tool: %s", tool)))
			return
		}

		args := map[string]any{}
		if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, domain.Failed(fmt.Sprintf("invalid JSON body: %v", err)))
			return
		}

		result, err := store.Execute(c.Request.Context(), tool, args)
		if err != nil {
			logger.Warn("mock commerce call aborted", zap.String("tool", tool), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, domain.Failed("request aborted"))
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
