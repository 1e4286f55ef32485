package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/config"
	"socialhub-backend/pkg/container"
	"socialhub-backend/pkg/logger"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("development", "")
		log.Fatal().Err(err).Msg("[Worker] Invalid configuration")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	if envErr != nil {
		log.Info().Msg("[Worker] No .env file found, using system environment variables")
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[Worker] Failed to initialize container")
	}
	defer c.Cleanup()

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(c, handlers)

	loop := c.NewRecoveryLoop()
	loop.Start()

	health := startHealthServer(c, loop)

	waitForShutdown(srv, loop, health)
}

func waitForShutdown(srv *asynqServer, loop recoveryLoop, health *healthServer) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("[Shutdown] Gracefully stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loop.Stop(ctx)
	srv.Shutdown()
	health.Shutdown(ctx)

	log.Info().Msg("[Shutdown] Stopped")
}
