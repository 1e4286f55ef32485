package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"socialhub-backend/internal/infrastructure/database"
)

type DatabaseConfig = database.DBConfig

func loadDatabaseConfig() (DatabaseConfig, error) {
	port, err := cast.ToIntE(getEnv("DB_PORT", "5432"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	return DatabaseConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              port,
		Username:          getEnv("DB_USER", "socialhub"),
		Password:          getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "socialhub"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          cast.ToInt32(getEnvInt("DB_MAX_CONNECTIONS", 25)),
		MinConns:          cast.ToInt32(getEnvInt("DB_MIN_CONNECTIONS", 5)),
		MaxConnLifetime:   getEnvDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvDuration("DB_MAX_CONN_IDLE_TIME", time.Minute),
		HealthCheckPeriod: getEnvDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		MaxRetries:        getEnvInt("DB_MAX_RETRIES", 5),
		RetryDelay:        getEnvDuration("DB_RETRY_DELAY", time.Second),
		ConnectTimeout:    getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}, nil
}
