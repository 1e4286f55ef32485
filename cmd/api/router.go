package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	publishingHandler "socialhub-backend/internal/domains/publishing/handler"
	"socialhub-backend/internal/shared/middleware"
	"socialhub-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		c.Metrics.Middleware(),
	)

	router.GET("/metrics", c.Metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		publishingHandler.RegisterRoutes(authed, c.PublishingHandler)
	}

	return router
}

// ========================================
// HEALTH
// ========================================

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()

		if err := c.HealthCheck(checkCtx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": c.Config.App.Name,
			"version": c.Config.App.Version,
		})
	}
}
