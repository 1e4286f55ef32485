package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/domains/publishing/adapter"
	"socialhub-backend/internal/domains/publishing/formatter"
	"socialhub-backend/internal/domains/publishing/model"
	"socialhub-backend/internal/domains/publishing/repository"
)

type publishMode int

const (
	// Direct publishes mark content failed as soon as a platform rejects it.
	modeDirect publishMode = iota
	// Scheduled publishes leave failure bookkeeping to the recovery loop.
	modeScheduled
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeDryRun  = "dry_run"
)

type publishingService struct {
	contentRepo repository.ContentRepository
	connRepo    repository.ConnectionRepository
	adapters    adapter.Factory
	media       MediaResolver
	lock        PublishLock
	metrics     Metrics
	attempts    AttemptResetter
	now         func() time.Time
}

// NewPublishingService wires the orchestrator. media, lock and metrics may be
// nil, in which case references pass through, locking is process-local and
// nothing is measured.
func NewPublishingService(
	contentRepo repository.ContentRepository,
	connRepo repository.ConnectionRepository,
	adapters adapter.Factory,
	media MediaResolver,
	lock PublishLock,
	metrics Metrics,
	opts ...Option,
) PublishingService {
	if media == nil {
		media = passthroughResolver{}
	}
	if lock == nil {
		lock = newLocalLock()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s := &publishingService{
		contentRepo: contentRepo,
		connRepo:    connRepo,
		adapters:    adapters,
		media:       media,
		lock:        lock,
		metrics:     metrics,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ================================================
// PUBLISH
// ================================================

func (s *publishingService) PublishToPlatform(ctx context.Context, businessID, contentID uuid.UUID, platform model.Platform, opts model.PublishOptions) (*model.PublishingResult, error) {
	content, err := s.loadOwnedContent(ctx, businessID, contentID)
	if err != nil {
		return nil, err
	}
	if !platform.IsSupported() {
		return nil, model.ErrUnsupportedPlatform
	}

	var mgr *adapter.Manager
	if !opts.DryRun {
		if mgr, err = s.managerFor(ctx, businessID); err != nil {
			return nil, err
		}
	}
	return s.safePublish(ctx, content, platform, opts, modeDirect, mgr)
}

// PublishToMultiplePlatforms publishes sequentially in input order; one
// platform failing never stops the others.
func (s *publishingService) PublishToMultiplePlatforms(ctx context.Context, businessID, contentID uuid.UUID, platforms []model.Platform, opts model.PublishOptions) (*model.BatchPublishingResult, error) {
	content, err := s.loadOwnedContent(ctx, businessID, contentID)
	if err != nil {
		return nil, err
	}

	var mgr *adapter.Manager
	if !opts.DryRun {
		if mgr, err = s.managerFor(ctx, businessID); err != nil {
			return nil, err
		}
	}

	batch := &model.BatchPublishingResult{Results: []model.PublishingResult{}}
	for _, p := range platforms {
		batch.Add(s.publishForBatch(ctx, content, p, opts, modeDirect, mgr))
	}

	log.Info().
		Str("content_id", contentID.String()).
		Int("success", batch.SuccessCount).
		Int("failed", batch.FailureCount).
		Msg("[PublishingService] Batch publish finished")
	return batch, nil
}

func (s *publishingService) PublishScheduled(ctx context.Context, content *model.Content) (*model.BatchPublishingResult, error) {
	content = content.Clone()
	mgr, err := s.managerFor(ctx, content.BusinessID)
	if err != nil {
		return nil, err
	}

	opts := model.DefaultPublishOptions()
	batch := &model.BatchPublishingResult{Results: []model.PublishingResult{}}
	for _, p := range content.PendingTargets() {
		batch.Add(s.publishForBatch(ctx, content, p, opts, modeScheduled, mgr))
	}

	if batch.FailureCount == 0 && len(content.PendingTargets()) == 0 {
		publishedAt := s.now()
		version, err := s.contentRepo.UpdateStatus(ctx, content.ID, content.Version, model.StatusPublished, &publishedAt)
		if err != nil {
			return batch, fmt.Errorf("mark scheduled content published: %w", err)
		}
		content.Version = version
		log.Info().Str("content_id", content.ID.String()).Msg("[PublishingService] Scheduled content published")
	}
	return batch, nil
}

// publishForBatch converts precondition errors into a failed result for the platform.
func (s *publishingService) publishForBatch(ctx context.Context, content *model.Content, p model.Platform, opts model.PublishOptions, mode publishMode, mgr *adapter.Manager) model.PublishingResult {
	res, err := s.safePublish(ctx, content, p, opts, mode, mgr)
	if err != nil {
		return model.PublishingResult{
			Success:   false,
			Platform:  p,
			ContentID: content.ID,
			Error:     err.Error(),
		}
	}
	return *res
}

// safePublish turns a panic anywhere below it into a failed result.
func (s *publishingService) safePublish(ctx context.Context, content *model.Content, p model.Platform, opts model.PublishOptions, mode publishMode, mgr *adapter.Manager) (result *model.PublishingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("content_id", content.ID.String()).
				Str("platform", string(p)).
				Interface("panic", r).
				Msg("[PublishingService] Recovered from panic during publish")
			result = &model.PublishingResult{
				Success:   false,
				Platform:  p,
				ContentID: content.ID,
				Error:     fmt.Sprintf("internal error: %v", r),
			}
			err = nil
		}
	}()
	return s.publishOne(ctx, content, p, opts, mode, mgr)
}

// publishOne runs format, validate, lock, publish and record for a single
// platform. Returned errors are preconditions that were checked before any
// content-specific action; everything else is reported in the result.
func (s *publishingService) publishOne(ctx context.Context, content *model.Content, p model.Platform, opts model.PublishOptions, mode publishMode, mgr *adapter.Manager) (*model.PublishingResult, error) {
	if !p.IsSupported() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, p)
	}

	formatted := formatter.FormatWithOptions(content, p, formatter.Options{AutoFix: opts.AutoFixContent})
	result := &model.PublishingResult{
		Platform:         p,
		ContentID:        content.ID,
		Warnings:         formatted.Warnings,
		FormattedContent: &formatted,
	}

	if opts.ValidateBeforePublish && !formatted.IsValid {
		result.Error = "validation failed: " + strings.Join(formatted.Errors, "; ")
		if !opts.DryRun {
			s.metrics.ObservePublish(string(p), outcomeFailure, 0)
			if mode == modeDirect {
				s.markFailed(ctx, content, p, result.Error)
			}
		}
		return result, nil
	}

	if opts.DryRun {
		result.Success = true
		s.metrics.ObservePublish(string(p), outcomeDryRun, 0)
		return result, nil
	}

	if mgr == nil || !mgr.Has(p) {
		return nil, fmt.Errorf("%w: %s", model.ErrNoActiveConnection, p)
	}

	release, acquired, err := s.lock.Acquire(ctx, lockKey(content.ID))
	if err != nil {
		return nil, fmt.Errorf("acquire publish lock: %w", err)
	}
	if !acquired {
		return nil, model.ErrPublishInProgress
	}
	defer release()

	post := adapter.Post{Text: formatted.Text, ScheduledFor: content.ScheduledFor}
	if formatted.ImageURL != nil {
		resolved, err := s.media.ResolveURL(ctx, *formatted.ImageURL)
		if err != nil {
			result.Error = fmt.Sprintf("resolve image: %v", err)
			s.metrics.ObservePublish(string(p), outcomeFailure, 0)
			if mode == modeDirect {
				s.markFailed(ctx, content, p, result.Error)
			}
			return result, nil
		}
		post.ImageURL = resolved
	}

	start := s.now()
	published := mgr.PublishToPlatform(ctx, p, post)
	elapsed := s.now().Sub(start)

	if !published.Success {
		result.Error = published.Error
		if result.Error == "" {
			result.Error = fmt.Sprintf("%s rejected the post", p)
		}
		s.metrics.ObservePublish(string(p), outcomeFailure, elapsed)
		log.Warn().
			Str("content_id", content.ID.String()).
			Str("platform", string(p)).
			Str("error", result.Error).
			Msg("[PublishingService] Publish failed")
		if mode == modeDirect {
			s.markFailed(ctx, content, p, result.Error)
		}
		return result, nil
	}

	s.metrics.ObservePublish(string(p), outcomeSuccess, elapsed)
	result.Success = true
	result.AdapterResult = published.Raw
	if published.PlatformPostID != "" {
		id := published.PlatformPostID
		result.PlatformPostID = &id
	}
	if err := s.recordSuccess(ctx, content, p, published.PlatformPostID, mode); err != nil {
		log.Error().Err(err).
			Str("content_id", content.ID.String()).
			Str("platform", string(p)).
			Msg("[PublishingService] Published but could not record the result")
		result.Warnings = append(result.Warnings, fmt.Sprintf("published, but the result could not be saved: %v", err))
	}

	log.Info().
		Str("content_id", content.ID.String()).
		Str("platform", string(p)).
		Str("post_id", published.PlatformPostID).
		Dur("elapsed", elapsed).
		Msg("[PublishingService] Content published")
	return result, nil
}

// recordSuccess stores the platform post id and, for direct publishes, moves
// the content to published. content is updated in place so later platforms in
// the same batch see the new version.
func (s *publishingService) recordSuccess(ctx context.Context, content *model.Content, p model.Platform, postID string, mode publishMode) error {
	postIDs := make(map[model.Platform]string, len(content.PlatformPostIDs)+1)
	for k, v := range content.PlatformPostIDs {
		postIDs[k] = v
	}
	postIDs[p] = postID

	update := model.ContentUpdate{
		PlatformPostIDs: postIDs,
		Metadata: model.JSONB{
			"last_published_platform": string(p),
			"last_published_at":       s.now().UTC().Format(time.RFC3339),
		},
	}
	if postID != "" {
		update.PlatformPostID = &postID
	}
	if err := s.contentRepo.Update(ctx, content.ID, update); err != nil {
		return fmt.Errorf("save platform post id: %w", err)
	}
	content.PlatformPostIDs = postIDs
	if postID != "" {
		content.PlatformPostID = &postID
	}

	if mode != modeDirect {
		return nil
	}
	publishedAt := s.now()
	version, err := s.contentRepo.UpdateStatus(ctx, content.ID, content.Version, model.StatusPublished, &publishedAt)
	if err != nil {
		return fmt.Errorf("mark content published: %w", err)
	}
	content.Version = version
	content.Status = model.StatusPublished
	content.PublishedAt = &publishedAt
	return nil
}

func (s *publishingService) markFailed(ctx context.Context, content *model.Content, p model.Platform, reason string) {
	version, err := s.contentRepo.UpdateStatus(ctx, content.ID, content.Version, model.StatusFailed, nil)
	if err != nil {
		log.Error().Err(err).
			Str("content_id", content.ID.String()).
			Msg("[PublishingService] Cannot mark content failed")
		return
	}
	content.Version = version
	content.Status = model.StatusFailed
	content.PublishedAt = nil

	if err := s.contentRepo.Update(ctx, content.ID, model.ContentUpdate{
		Metadata: model.JSONB{
			"last_error":          reason,
			"last_error_platform": string(p),
		},
	}); err != nil {
		log.Warn().Err(err).Str("content_id", content.ID.String()).Msg("[PublishingService] Cannot record failure reason")
	}
}

// ================================================
// PREVIEW / VALIDATE / SCHEDULE
// ================================================

func (s *publishingService) PreviewContentForAllPlatforms(ctx context.Context, businessID, contentID uuid.UUID) (map[model.Platform]model.FormattedContent, error) {
	content, err := s.loadOwnedContent(ctx, businessID, contentID)
	if err != nil {
		return nil, err
	}
	previews := make(map[model.Platform]model.FormattedContent, len(model.SupportedPlatforms()))
	for _, p := range model.SupportedPlatforms() {
		previews[p] = formatter.Format(content, p)
	}
	return previews, nil
}

func (s *publishingService) ValidateContentForPublishing(ctx context.Context, businessID, contentID uuid.UUID, platforms []model.Platform) (*model.ValidationReport, error) {
	content, err := s.loadOwnedContent(ctx, businessID, contentID)
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		platforms = model.SupportedPlatforms()
	}
	return validate(content, platforms), nil
}

func validate(content *model.Content, platforms []model.Platform) *model.ValidationReport {
	report := &model.ValidationReport{
		IsValid:   true,
		Platforms: make(map[model.Platform]model.PlatformValidation, len(platforms)),
	}
	for _, p := range platforms {
		formatted := formatter.Format(content, p)
		report.Platforms[p] = model.PlatformValidation{
			IsValid:  formatted.IsValid,
			Errors:   formatted.Errors,
			Warnings: formatted.Warnings,
		}
		report.IsValid = report.IsValid && formatted.IsValid
	}
	return report
}

// ScheduleContent approves content for the recovery loop. Content that fails
// validation is left untouched and reported as an unsuccessful result.
func (s *publishingService) ScheduleContent(ctx context.Context, businessID, contentID uuid.UUID, scheduledFor time.Time, platforms []model.Platform) (*model.ScheduleResult, error) {
	content, err := s.loadOwnedContent(ctx, businessID, contentID)
	if err != nil {
		return nil, err
	}
	if scheduledFor.IsZero() {
		return nil, model.ErrInvalidSchedule
	}
	if content.Status == model.StatusPublished {
		return nil, model.NewPublishingError(model.ErrCodeInvalidTransition, "content is already published", model.ErrInvalidStatusTransition)
	}
	for _, p := range platforms {
		if !p.IsSupported() {
			return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, p)
		}
	}
	if len(platforms) == 0 {
		platforms = []model.Platform{content.Platform}
	}

	report := validate(content, platforms)
	if !report.IsValid {
		var invalid []string
		for _, p := range platforms {
			if !report.Platforms[p].IsValid {
				invalid = append(invalid, string(p))
			}
		}
		return &model.ScheduleResult{
			Success:            false,
			Message:            "Content failed validation for: " + strings.Join(invalid, ", "),
			ScheduledPlatforms: []model.Platform{},
		}, nil
	}

	if err := s.contentRepo.Update(ctx, content.ID, model.ContentUpdate{
		ScheduledFor:    &scheduledFor,
		TargetPlatforms: platforms,
	}); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	// a new schedule starts a fresh retry budget
	if s.attempts != nil {
		if err := s.attempts.Clear(ctx, content.ID); err != nil {
			log.Warn().Err(err).Str("content_id", content.ID.String()).Msg("[PublishingService] Cannot reset publish attempts")
		}
	}
	if content.Status != model.StatusApproved {
		if _, err := s.contentRepo.UpdateStatus(ctx, content.ID, content.Version, model.StatusApproved, nil); err != nil {
			return nil, fmt.Errorf("approve scheduled content: %w", err)
		}
	}

	log.Info().
		Str("content_id", content.ID.String()).
		Time("scheduled_for", scheduledFor).
		Int("platforms", len(platforms)).
		Msg("[PublishingService] Content scheduled")
	return &model.ScheduleResult{
		Success:            true,
		Message:            fmt.Sprintf("Content scheduled for %s on %d platform(s)", scheduledFor.UTC().Format(time.RFC3339), len(platforms)),
		ScheduledPlatforms: platforms,
	}, nil
}

// ================================================
// REQUIREMENTS / SUGGESTIONS / INTERACTIONS
// ================================================

func (s *publishingService) GetPublishingRequirements(ctx context.Context, businessID uuid.UUID) (*model.PublishingRequirements, error) {
	mgr, err := s.managerFor(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return &model.PublishingRequirements{
		ConnectedPlatforms: mgr.Platforms(),
		Requirements:       model.AllConstraints(),
	}, nil
}

func (s *publishingService) GetContentOptimizationSuggestions(ctx context.Context, businessID, contentID uuid.UUID) (map[model.Platform][]string, error) {
	content, err := s.loadOwnedContent(ctx, businessID, contentID)
	if err != nil {
		return nil, err
	}
	out := make(map[model.Platform][]string, len(model.SupportedPlatforms()))
	for _, p := range model.SupportedPlatforms() {
		out[p] = formatter.Suggestions(content, p)
	}
	return out, nil
}

func (s *publishingService) GetAllInteractions(ctx context.Context, businessID uuid.UUID, since time.Time) (*model.InteractionsResult, error) {
	mgr, err := s.managerFor(ctx, businessID)
	if err != nil {
		return nil, err
	}
	items, failures := mgr.GetAllInteractions(ctx, since)
	result := &model.InteractionsResult{Interactions: items}
	if len(failures) > 0 {
		result.Errors = make(map[model.Platform]string, len(failures))
		for p, err := range failures {
			result.Errors[p] = err.Error()
		}
	}
	return result, nil
}

// ================================================
// HELPERS
// ================================================

func (s *publishingService) loadOwnedContent(ctx context.Context, businessID, contentID uuid.UUID) (*model.Content, error) {
	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, model.ErrContentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load content: %w", err)
	}
	if !content.IsOwnedBy(businessID) {
		return nil, model.ErrContentAccessDenied
	}
	return content, nil
}

func (s *publishingService) managerFor(ctx context.Context, businessID uuid.UUID) (*adapter.Manager, error) {
	conns, err := s.connRepo.ListByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("load platform connections: %w", err)
	}
	return adapter.NewManager(s.adapters, conns, s.now()), nil
}

func lockKey(contentID uuid.UUID) string {
	return "publish:" + contentID.String()
}
