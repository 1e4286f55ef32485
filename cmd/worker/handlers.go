package main

import (
	"github.com/hibiken/asynq"

	publishingJob "socialhub-backend/internal/domains/publishing/job"
	"socialhub-backend/internal/shared"
	"socialhub-backend/pkg/container"
)

// HandlerRegistry holds all task handlers
type HandlerRegistry struct {
	publishContent *publishingJob.PublishContentHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		publishContent: publishingJob.NewPublishContentHandler(c.PublishingService),
	}
}

func (r *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.Handle(shared.TypePublishContent, r.publishContent)
}
