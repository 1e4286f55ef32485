package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"socialhub-backend/internal/domains/publishing/model"
)

// ================================================
// PUBLISHING SERVICE INTERFACE
// ================================================

type PublishingService interface {
	PublishToPlatform(ctx context.Context, businessID, contentID uuid.UUID, platform model.Platform, opts model.PublishOptions) (*model.PublishingResult, error)
	PublishToMultiplePlatforms(ctx context.Context, businessID, contentID uuid.UUID, platforms []model.Platform, opts model.PublishOptions) (*model.BatchPublishingResult, error)

	// PublishScheduled publishes due content to its pending targets. It never
	// marks content failed; the recovery loop owns that decision.
	PublishScheduled(ctx context.Context, content *model.Content) (*model.BatchPublishingResult, error)

	PreviewContentForAllPlatforms(ctx context.Context, businessID, contentID uuid.UUID) (map[model.Platform]model.FormattedContent, error)
	ValidateContentForPublishing(ctx context.Context, businessID, contentID uuid.UUID, platforms []model.Platform) (*model.ValidationReport, error)
	ScheduleContent(ctx context.Context, businessID, contentID uuid.UUID, scheduledFor time.Time, platforms []model.Platform) (*model.ScheduleResult, error)
	GetPublishingRequirements(ctx context.Context, businessID uuid.UUID) (*model.PublishingRequirements, error)
	GetContentOptimizationSuggestions(ctx context.Context, businessID, contentID uuid.UUID) (map[model.Platform][]string, error)
	GetAllInteractions(ctx context.Context, businessID uuid.UUID, since time.Time) (*model.InteractionsResult, error)
}

// PublishLock serializes publishes of the same content across processes.
type PublishLock interface {
	Acquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// MediaResolver turns a stored image reference into a URL a platform can fetch.
type MediaResolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}

type Metrics interface {
	ObservePublish(platform, outcome string, duration time.Duration)
}

// AttemptResetter forgets the recovery loop's failure count for content that
// is scheduled again.
type AttemptResetter interface {
	Clear(ctx context.Context, contentID uuid.UUID) error
}

type Option func(*publishingService)

func WithAttemptResetter(r AttemptResetter) Option {
	return func(s *publishingService) {
		s.attempts = r
	}
}
