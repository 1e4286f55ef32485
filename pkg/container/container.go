package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/config"
	"socialhub-backend/internal/domains/publishing/adapter"
	publishingHandler "socialhub-backend/internal/domains/publishing/handler"
	"socialhub-backend/internal/domains/publishing/job"
	"socialhub-backend/internal/domains/publishing/repository"
	"socialhub-backend/internal/domains/publishing/service"
	"socialhub-backend/internal/infrastructure/cache"
	"socialhub-backend/internal/infrastructure/database"
	"socialhub-backend/internal/infrastructure/metrics"
	"socialhub-backend/internal/infrastructure/queue"
	"socialhub-backend/internal/infrastructure/storage"
	"socialhub-backend/pkg/crypto"
	"socialhub-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every long-lived dependency shared by the api and worker
// processes.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *cache.RedisClient
	Storage    *storage.MinIOStorage // nil when MinIO is disabled
	Queue      *queue.Client
	Metrics    *metrics.PublishingMetrics
	JWTManager *jwt.Manager

	// Repositories
	ContentRepo    repository.ContentRepository
	ConnectionRepo repository.ConnectionRepository
	Attempts       job.AttemptTracker

	// Services
	Adapters          adapter.Factory
	PublishingService service.PublishingService

	// Handlers
	PublishingHandler publishingHandler.PublishingHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	if err := c.initPublishing(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("init publishing: %w", err)
	}

	log.Info().
		Str("adapter_mode", cfg.Platforms.Mode).
		Bool("media_storage", c.Storage != nil).
		Msg("[Container] Initialized")
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	c.DB = database.NewPostgresDB(&cfg.Database)
	if err := c.DB.Connect(ctx); err != nil {
		return err
	}

	c.Redis = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return err
	}

	if cfg.MinIO.Enabled {
		s, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		c.Storage = s
	}

	c.Queue = queue.NewClient(c.RedisConnOpt())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.NewPublishingMetrics(reg)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, 0)
	return nil
}

func (c *Container) initPublishing() error {
	cfg := c.Config

	var tokens repository.TokenOpener
	if cfg.TokenKey != "" {
		sealer, err := crypto.NewTokenSealer(cfg.TokenKey)
		if err != nil {
			return err
		}
		tokens = sealer
	} else {
		log.Warn().Msg("[Container] TOKEN_ENCRYPTION_KEY not set, platform tokens are read as plaintext")
		tokens = crypto.Plaintext{}
	}

	c.ContentRepo = repository.NewContentRepository(c.DB.Pool)
	c.ConnectionRepo = repository.NewConnectionRepository(c.DB.Pool, tokens)
	if cfg.Publishing.AttemptStore == config.AttemptStoreRedis {
		c.Attempts = job.NewRedisAttemptTracker(c.Redis.Client, 0)
	} else {
		c.Attempts = job.NewMemoryAttemptTracker()
	}

	if cfg.Platforms.Mode == config.AdapterModeSimulated {
		log.Warn().Msg("[Container] Using simulated platform adapters, nothing reaches the real platforms")
		c.Adapters = adapter.NewSimulatedFactory()
	} else {
		c.Adapters = adapter.NewHTTPFactory(endpointsFrom(cfg.Platforms), clientConfigFrom(cfg.Platforms))
	}

	var media service.MediaResolver
	if c.Storage != nil {
		media = c.Storage
	}

	c.PublishingService = service.NewPublishingService(
		c.ContentRepo,
		c.ConnectionRepo,
		c.Adapters,
		media,
		cache.NewRedisLock(c.Redis.Client, cfg.Publishing.LockTTL),
		c.Metrics,
		service.WithAttemptResetter(c.Attempts),
	)
	c.PublishingHandler = publishingHandler.NewPublishingHandler(c.PublishingService, c.Queue)
	return nil
}

// ========================================
// WORKER COMPONENTS
// ========================================

// NewRecoveryLoop builds the scheduled-publish loop. It shares the attempt
// store the publishing service resets on reschedule.
func (c *Container) NewRecoveryLoop() *job.RecoveryLoop {
	pc := c.Config.Publishing

	return job.NewRecoveryLoop(job.RecoveryConfig{
		Interval:   pc.Interval,
		MaxRetries: pc.MaxRetries,
		Backoff:    pc.Backoff,
		GCAfter:    pc.GCAfter,
		BatchSize:  pc.BatchSize,
	}, c.ContentRepo, c.PublishingService, c.Attempts, c.Metrics)
}

func (c *Container) RedisConnOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// HealthCheck reports the first unhealthy dependency.
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := c.DB.HealthCheck(ctx); err != nil {
		return err
	}
	if err := c.Redis.HealthCheck(ctx); err != nil {
		return err
	}
	if c.Storage != nil {
		if err := c.Storage.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ========================================
// CLEANUP
// ========================================

func (c *Container) Cleanup() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("[Container] Queue client close failed")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("[Container] Redis close failed")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

func endpointsFrom(pc config.PlatformsConfig) adapter.Endpoints {
	return adapter.Endpoints{
		Graph:     pc.GraphURL,
		LinkedIn:  pc.LinkedInURL,
		Twitter:   pc.TwitterURL,
		Pinterest: pc.PinterestURL,
	}
}

func clientConfigFrom(pc config.PlatformsConfig) adapter.ClientConfig {
	return adapter.ClientConfig{
		Timeout:           pc.Timeout,
		MaxRetries:        pc.MaxRetries,
		RetryBaseDelay:    pc.RetryBaseDelay,
		RetryMaxDelay:     pc.RetryMaxDelay,
		BreakerFailures:   pc.BreakerFailures,
		BreakerWindow:     pc.BreakerWindow,
		BreakerDelay:      pc.BreakerDelay,
		RequestsPerSecond: pc.RequestsPerSecond,
		Burst:             pc.Burst,
	}
}
