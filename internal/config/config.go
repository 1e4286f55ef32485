package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config is populated from environment variables.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	MinIO      MinIOConfig
	Publishing PublishingConfig
	Platforms  PlatformsConfig
	// TokenKey is the hex-encoded 32-byte key that seals platform access tokens.
	TokenKey string
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	WorkerPort  string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	URLExpiry time.Duration
}

// =====================================================
// PUBLISHING
// =====================================================

const (
	AttemptStoreMemory = "memory"
	AttemptStoreRedis  = "redis"
)

type PublishingConfig struct {
	Interval     time.Duration
	MaxRetries   int
	Backoff      time.Duration
	GCAfter      time.Duration
	BatchSize    int
	LockTTL      time.Duration
	AttemptStore string // memory, redis
}

// =====================================================
// PLATFORM APIS
// =====================================================

const (
	AdapterModeLive      = "live"
	AdapterModeSimulated = "simulated"
)

type PlatformsConfig struct {
	Mode string // live, simulated

	GraphURL     string
	LinkedInURL  string
	TwitterURL   string
	PinterestURL string

	Timeout           time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	BreakerFailures   uint
	BreakerWindow     uint
	BreakerDelay      time.Duration
	RequestsPerSecond float64
	Burst             int
}

func Load() (*Config, error) {
	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "SocialHub API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			WorkerPort:  getEnv("WORKER_PORT", "8081"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: dbCfg,
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		MinIO: MinIOConfig{
			Enabled:   getEnvBool("MINIO_ENABLED", false),
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "socialhub-media"),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			URLExpiry: getEnvDuration("MINIO_URL_EXPIRY", time.Hour),
		},
		Publishing: PublishingConfig{
			Interval:     getEnvDuration("PUBLISH_LOOP_INTERVAL", time.Minute),
			MaxRetries:   getEnvInt("PUBLISH_MAX_RETRIES", 3),
			Backoff:      getEnvDuration("PUBLISH_RETRY_BACKOFF", 5*time.Minute),
			GCAfter:      getEnvDuration("PUBLISH_ATTEMPT_GC_AFTER", time.Hour),
			BatchSize:    getEnvInt("PUBLISH_DUE_BATCH_SIZE", 50),
			LockTTL:      getEnvDuration("PUBLISH_LOCK_TTL", 2*time.Minute),
			AttemptStore: strings.ToLower(getEnv("PUBLISH_ATTEMPT_STORE", AttemptStoreRedis)),
		},
		Platforms: PlatformsConfig{
			Mode:              strings.ToLower(getEnv("PLATFORM_ADAPTER_MODE", AdapterModeLive)),
			GraphURL:          getEnv("PLATFORM_GRAPH_URL", "https://graph.facebook.com/v19.0"),
			LinkedInURL:       getEnv("PLATFORM_LINKEDIN_URL", "https://api.linkedin.com"),
			TwitterURL:        getEnv("PLATFORM_TWITTER_URL", "https://api.twitter.com"),
			PinterestURL:      getEnv("PLATFORM_PINTEREST_URL", "https://api.pinterest.com"),
			Timeout:           getEnvDuration("PLATFORM_HTTP_TIMEOUT", 15*time.Second),
			MaxRetries:        getEnvInt("PLATFORM_MAX_RETRIES", 2),
			RetryBaseDelay:    getEnvDuration("PLATFORM_RETRY_BASE_DELAY", 200*time.Millisecond),
			RetryMaxDelay:     getEnvDuration("PLATFORM_RETRY_MAX_DELAY", 5*time.Second),
			BreakerFailures:   cast.ToUint(getEnvInt("PLATFORM_BREAKER_FAILURES", 5)),
			BreakerWindow:     cast.ToUint(getEnvInt("PLATFORM_BREAKER_WINDOW", 10)),
			BreakerDelay:      getEnvDuration("PLATFORM_BREAKER_DELAY", 30*time.Second),
			RequestsPerSecond: getEnvFloat("PLATFORM_REQUESTS_PER_SECOND", 5),
			Burst:             getEnvInt("PLATFORM_BURST", 5),
		},
		TokenKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings the processes cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Publishing.Interval <= 0 {
		errs = append(errs, errors.New("PUBLISH_LOOP_INTERVAL must be positive"))
	}
	if c.Publishing.MaxRetries < 1 {
		errs = append(errs, errors.New("PUBLISH_MAX_RETRIES must be at least 1"))
	}
	if c.Publishing.BatchSize < 1 {
		errs = append(errs, errors.New("PUBLISH_DUE_BATCH_SIZE must be at least 1"))
	}
	switch c.Publishing.AttemptStore {
	case AttemptStoreMemory, AttemptStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("PUBLISH_ATTEMPT_STORE must be %q or %q", AttemptStoreMemory, AttemptStoreRedis))
	}
	switch c.Platforms.Mode {
	case AdapterModeLive, AdapterModeSimulated:
	default:
		errs = append(errs, fmt.Errorf("PLATFORM_ADAPTER_MODE must be %q or %q", AdapterModeLive, AdapterModeSimulated))
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD must be set in production"))
		}
		if c.TokenKey == "" {
			errs = append(errs, errors.New("TOKEN_ENCRYPTION_KEY must be set in production"))
		}
		if c.Platforms.Mode == AdapterModeSimulated {
			errs = append(errs, errors.New("simulated platform adapters are not allowed in production"))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := cast.ToIntE(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := cast.ToFloat64E(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := cast.ToBoolE(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go duration strings ("90s", "5m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := cast.ToDurationE(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
