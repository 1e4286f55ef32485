package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/domains/publishing/model"
	"socialhub-backend/internal/domains/publishing/service"
	"socialhub-backend/internal/shared"
	"socialhub-backend/internal/shared/response"
)

const defaultInteractionsWindow = 24 * time.Hour

type publishingHandler struct {
	publishingService service.PublishingService
	tasks             TaskEnqueuer
}

// NewPublishingHandler builds the HTTP layer. tasks may be nil, in which case
// async publishing answers 503.
func NewPublishingHandler(publishingService service.PublishingService, tasks TaskEnqueuer) PublishingHandler {
	return &publishingHandler{
		publishingService: publishingService,
		tasks:             tasks,
	}
}

// ================================================
// PUBLISH
// POST /api/v1/contents/:id/publish
// ================================================

func (h *publishingHandler) Publish(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.PublishRequest
	if !bindAndValidate(c, &req) {
		return
	}
	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.publishingService.PublishToPlatform(c.Request.Context(), businessID, contentID, platform, req.Options())
	if err != nil {
		writeError(c, err)
		return
	}

	if !result.Success {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "PUBLISH_FAILED", result.Error, result)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ================================================
// PUBLISH BATCH
// POST /api/v1/contents/:id/publish/batch
// ================================================

func (h *publishingHandler) PublishBatch(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.BatchPublishRequest
	if !bindAndValidate(c, &req) {
		return
	}
	platforms, err := model.ParsePlatforms(req.Platforms)
	if err != nil {
		writeError(c, err)
		return
	}

	// Partial failure is a normal outcome, the body reports it per platform.
	result, err := h.publishingService.PublishToMultiplePlatforms(c.Request.Context(), businessID, contentID, platforms, req.Options())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ================================================
// PUBLISH ASYNC
// POST /api/v1/contents/:id/publish/async
// ================================================

func (h *publishingHandler) PublishAsync(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}
	if h.tasks == nil {
		response.ServiceUnavailable(c, "background publishing is not available")
		return
	}

	var req model.BatchPublishRequest
	if !bindAndValidate(c, &req) {
		return
	}
	platforms, err := model.ParsePlatforms(req.Platforms)
	if err != nil {
		writeError(c, err)
		return
	}

	opts := req.Options()
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = p.String()
	}

	taskID, err := h.tasks.EnqueuePublish(c.Request.Context(), shared.PublishContentPayload{
		BusinessID:            businessID.String(),
		ContentID:             contentID.String(),
		Platforms:             names,
		ValidateBeforePublish: opts.ValidateBeforePublish,
		AutoFixContent:        opts.AutoFixContent,
		DryRun:                opts.DryRun,
	})
	if err != nil {
		log.Error().Err(err).Str("content_id", contentID.String()).Msg("[PublishingHandler] Failed to enqueue publish")
		response.ServiceUnavailable(c, "could not queue publish request")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"task_id":    taskID,
		"content_id": contentID,
		"platforms":  names,
	})
}

// ================================================
// PREVIEW
// GET /api/v1/contents/:id/preview
// ================================================

func (h *publishingHandler) Preview(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}

	previews, err := h.publishingService.PreviewContentForAllPlatforms(c.Request.Context(), businessID, contentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, previews)
}

// ================================================
// VALIDATE
// POST /api/v1/contents/:id/validate
// ================================================

func (h *publishingHandler) Validate(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.ValidateContentRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	platforms, err := model.ParsePlatforms(req.Platforms)
	if err != nil {
		writeError(c, err)
		return
	}

	report, err := h.publishingService.ValidateContentForPublishing(c.Request.Context(), businessID, contentID, platforms)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ================================================
// SCHEDULE
// POST /api/v1/contents/:id/schedule
// ================================================

func (h *publishingHandler) Schedule(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.ScheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	platforms, err := model.ParsePlatforms(req.Platforms)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.publishingService.ScheduleContent(c.Request.Context(), businessID, contentID, req.ScheduledFor, platforms)
	if err != nil {
		writeError(c, err)
		return
	}
	if !result.Success {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, model.ErrCodeValidationFailed, result.Message, result)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ================================================
// SUGGESTIONS
// GET /api/v1/contents/:id/suggestions
// ================================================

func (h *publishingHandler) Suggestions(c *gin.Context) {
	businessID, contentID, ok := h.identify(c)
	if !ok {
		return
	}

	suggestions, err := h.publishingService.GetContentOptimizationSuggestions(c.Request.Context(), businessID, contentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, suggestions)
}

// ================================================
// REQUIREMENTS
// GET /api/v1/publishing/requirements
// ================================================

func (h *publishingHandler) Requirements(c *gin.Context) {
	businessID, err := getBusinessIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	reqs, err := h.publishingService.GetPublishingRequirements(c.Request.Context(), businessID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reqs)
}

// ================================================
// INTERACTIONS
// GET /api/v1/publishing/interactions?since=RFC3339
// ================================================

func (h *publishingHandler) Interactions(c *gin.Context) {
	businessID, err := getBusinessIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	since := time.Now().Add(-defaultInteractionsWindow)
	if raw := c.Query("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "since must be an RFC3339 timestamp")
			return
		}
	}

	result, err := h.publishingService.GetAllInteractions(c.Request.Context(), businessID, since)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ================================================
// HELPERS
// ================================================

func (h *publishingHandler) identify(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	businessID, err := getBusinessIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid content id")
		return uuid.Nil, uuid.Nil, false
	}
	return businessID, contentID, true
}

func getBusinessIDFromContext(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(shared.ContextKeyBusinessID)
	if !exists {
		return uuid.Nil, errors.New("business not found in context")
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid business id type %T", raw)
	}
	return id, nil
}

type validatable interface {
	Validate() error
}

func bindAndValidate(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeValidationFailed, "request validation failed", err)
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	code := model.CodeFor(err)
	status := http.StatusInternalServerError
	switch code {
	case model.ErrCodeContentNotFound:
		status = http.StatusNotFound
	case model.ErrCodeContentAccessDenied:
		status = http.StatusForbidden
	case model.ErrCodeVersionConflict, model.ErrCodeInvalidTransition, model.ErrCodePublishInProgress:
		status = http.StatusConflict
	case model.ErrCodeInvalidSchedule, model.ErrCodeUnsupportedPlatform:
		status = http.StatusBadRequest
	case model.ErrCodeNoActiveConnection:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", c.GetString(shared.ContextKeyRequestID)).Msg("[PublishingHandler] Request failed")
		response.ErrorResponse(c, status, code, "internal server error")
		return
	}
	message := err.Error()
	var pe *model.PublishingError
	if errors.As(err, &pe) {
		message = pe.Message
	}
	response.ErrorResponse(c, status, code, message)
}
