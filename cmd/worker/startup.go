package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"socialhub-backend/pkg/container"
)

type recoveryLoop interface {
	Running() bool
	Stop(ctx context.Context)
}

type healthServer struct {
	srv *http.Server
}

// startHealthServer exposes /health, /ready and /metrics for the worker.
func startHealthServer(c *container.Container, loop recoveryLoop) *healthServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "UP", "service": "socialhub-worker"})
	})
	router.GET("/ready", func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()

		if err := c.HealthCheck(checkCtx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "READY", "recovery_loop": loop.Running()})
	})
	router.GET("/metrics", c.Metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", c.Config.App.WorkerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", c.Config.App.WorkerPort).Msg("[Health] Starting health server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("[Health] Server failed")
		}
	}()

	return &healthServer{srv: srv}
}

func (h *healthServer) Shutdown(ctx context.Context) {
	if err := h.srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("[Health] Shutdown incomplete")
	}
}
