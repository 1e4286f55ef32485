package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/domains/publishing/model"
	"socialhub-backend/internal/domains/publishing/service"
	"socialhub-backend/internal/shared"
)

// PublishContentHandler runs publishes requested through the async endpoint.
type PublishContentHandler struct {
	publishing service.PublishingService
}

func NewPublishContentHandler(publishing service.PublishingService) *PublishContentHandler {
	return &PublishContentHandler{publishing: publishing}
}

// ProcessTask publishes the content to every requested platform. Platform
// failures are final for the task; only infrastructure errors are retried by
// asynq, so a post is never sent twice because of a queue retry.
func (h *PublishContentHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.PublishContentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("[PublishContentHandler] Failed to unmarshal payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	businessID, err := uuid.Parse(payload.BusinessID)
	if err != nil {
		return fmt.Errorf("invalid business id: %v: %w", err, asynq.SkipRetry)
	}
	contentID, err := uuid.Parse(payload.ContentID)
	if err != nil {
		return fmt.Errorf("invalid content id: %v: %w", err, asynq.SkipRetry)
	}
	platforms, err := model.ParsePlatforms(payload.Platforms)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	opts := model.PublishOptions{
		ValidateBeforePublish: payload.ValidateBeforePublish,
		AutoFixContent:        payload.AutoFixContent,
		DryRun:                payload.DryRun,
	}

	log.Info().
		Str("content_id", payload.ContentID).
		Strs("platforms", payload.Platforms).
		Msg("[PublishContentHandler] Publishing content")

	batch, err := h.publishing.PublishToMultiplePlatforms(ctx, businessID, contentID, platforms, opts)
	if err != nil {
		if errors.Is(err, model.ErrContentNotFound) || errors.Is(err, model.ErrContentAccessDenied) {
			return fmt.Errorf("publish content: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("publish content: %w", err)
	}

	log.Info().
		Str("content_id", payload.ContentID).
		Int("success", batch.SuccessCount).
		Int("failed", batch.FailureCount).
		Msg("[PublishContentHandler] Async publish finished")
	return nil
}
