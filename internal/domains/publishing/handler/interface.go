package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"socialhub-backend/internal/shared"
)

// ================================================
// HANDLER INTERFACES
// ================================================

type PublishingHandler interface {
	// Content endpoints
	Publish(c *gin.Context)
	PublishBatch(c *gin.Context)
	PublishAsync(c *gin.Context)
	Preview(c *gin.Context)
	Validate(c *gin.Context)
	Schedule(c *gin.Context)
	Suggestions(c *gin.Context)

	// Business endpoints
	Requirements(c *gin.Context)
	Interactions(c *gin.Context)
}

// TaskEnqueuer hands publish work to the worker process.
type TaskEnqueuer interface {
	EnqueuePublish(ctx context.Context, payload shared.PublishContentPayload) (string, error)
}
