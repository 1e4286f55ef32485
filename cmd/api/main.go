package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/config"
	"socialhub-backend/pkg/container"
	"socialhub-backend/pkg/logger"
)

func main() {
	// Production uses real environment variables; .env is for local runs.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("development", "")
		log.Fatal().Err(err).Msg("[API] Invalid configuration")
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	if envErr != nil {
		log.Info().Msg("[API] No .env file found, using system environment variables")
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	appContainer, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[API] Failed to initialize container")
	}
	defer appContainer.Cleanup()

	Serve(appContainer)
}
