package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/domains/publishing/model"
	"socialhub-backend/internal/domains/publishing/repository"
)

// ScheduledPublisher is the part of the publishing service the loop drives.
type ScheduledPublisher interface {
	PublishScheduled(ctx context.Context, content *model.Content) (*model.BatchPublishingResult, error)
}

type LoopMetrics interface {
	ObserveSweep(stats SweepStats, duration time.Duration)
}

type RecoveryConfig struct {
	Interval   time.Duration
	MaxRetries int
	Backoff    time.Duration
	GCAfter    time.Duration
	BatchSize  int
}

func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Interval:   time.Minute,
		MaxRetries: 3,
		Backoff:    5 * time.Minute,
		GCAfter:    time.Hour,
		BatchSize:  50,
	}
}

// SweepStats summarizes one pass over due content.
type SweepStats struct {
	Due       int `json:"due"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Deferred  int `json:"deferred"`
	Exhausted int `json:"exhausted"`
	Pruned    int `json:"pruned"`
}

// RecoveryLoop periodically publishes approved content whose scheduled time
// has passed, retrying failures with a fixed backoff up to MaxRetries before
// marking the content failed.
type RecoveryLoop struct {
	cfg       RecoveryConfig
	contents  repository.ContentRepository
	publisher ScheduledPublisher
	attempts  AttemptTracker
	metrics   LoopMetrics
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func NewRecoveryLoop(cfg RecoveryConfig, contents repository.ContentRepository, publisher ScheduledPublisher, attempts AttemptTracker, metrics LoopMetrics) *RecoveryLoop {
	if attempts == nil {
		attempts = NewMemoryAttemptTracker()
	}
	return &RecoveryLoop{
		cfg:       cfg,
		contents:  contents,
		publisher: publisher,
		attempts:  attempts,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Start schedules the sweep. Calling Start on a running loop does nothing and
// returns false. A sweep that is still running when the next tick fires makes
// that tick a no-op.
func (l *RecoveryLoop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	c.Schedule(cron.Every(l.cfg.Interval), cron.FuncJob(func() {
		l.RunOnce(ctx)
	}))
	c.Start()

	l.cron = c
	l.cancel = cancel
	l.running = true
	log.Info().
		Dur("interval", l.cfg.Interval).
		Int("max_retries", l.cfg.MaxRetries).
		Dur("backoff", l.cfg.Backoff).
		Msg("[RecoveryLoop] Started")
	return true
}

// Stop waits for an in-flight sweep to finish, or for ctx to expire, then
// cancels whatever is left. It is safe to call more than once.
func (l *RecoveryLoop) Stop(ctx context.Context) {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	c, cancel := l.cron, l.cancel
	l.running = false
	l.cron, l.cancel = nil, nil
	l.mu.Unlock()

	done := c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("[RecoveryLoop] Stop timed out waiting for the current sweep")
	}
	cancel()
	log.Info().Msg("[RecoveryLoop] Stopped")
}

func (l *RecoveryLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// RunOnce performs a single sweep.
func (l *RecoveryLoop) RunOnce(ctx context.Context) SweepStats {
	start := l.now()
	var stats SweepStats

	due, err := l.contents.ListDue(ctx, start, l.cfg.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("[RecoveryLoop] Failed to list due content")
		return stats
	}
	stats.Due = len(due)

	for i := range due {
		if ctx.Err() != nil {
			break
		}
		l.process(ctx, &due[i], &stats)
	}

	if pruned, err := l.attempts.PruneExhausted(ctx, l.cfg.MaxRetries, l.now().Add(-l.cfg.GCAfter)); err != nil {
		log.Warn().Err(err).Msg("[RecoveryLoop] Failed to prune attempt records")
	} else {
		stats.Pruned = pruned
	}

	elapsed := l.now().Sub(start)
	if l.metrics != nil {
		l.metrics.ObserveSweep(stats, elapsed)
	}
	if stats.Due > 0 {
		log.Info().
			Int("due", stats.Due).
			Int("published", stats.Published).
			Int("failed", stats.Failed).
			Int("deferred", stats.Deferred).
			Int("exhausted", stats.Exhausted).
			Dur("elapsed", elapsed).
			Msg("[RecoveryLoop] Sweep finished")
	}
	return stats
}

func (l *RecoveryLoop) process(ctx context.Context, content *model.Content, stats *SweepStats) {
	logger := log.With().Str("content_id", content.ID.String()).Logger()

	rec, found, err := l.attempts.Get(ctx, content.ID)
	if err != nil {
		logger.Error().Err(err).Msg("[RecoveryLoop] Cannot read attempt record, skipping")
		return
	}
	if found && content.ScheduledFor != nil && content.ScheduledFor.After(rec.LastAttempt) {
		// failures from before the current schedule do not count against it
		if err := l.attempts.Clear(ctx, content.ID); err != nil {
			logger.Warn().Err(err).Msg("[RecoveryLoop] Cannot clear stale attempt record")
		}
		found = false
	}
	if found && rec.Attempts >= l.cfg.MaxRetries {
		// a previous sweep hit the ceiling but could not record the failure
		stats.Exhausted++
		l.markFailed(ctx, content)
		return
	}
	if found && l.now().Sub(rec.LastAttempt) < l.cfg.Backoff {
		stats.Deferred++
		return
	}

	batch, err := l.publisher.PublishScheduled(ctx, content)
	if err == nil && batch.FailureCount == 0 {
		stats.Published++
		if found {
			if err := l.attempts.Clear(ctx, content.ID); err != nil {
				logger.Warn().Err(err).Msg("[RecoveryLoop] Cannot clear attempt record")
			}
		}
		return
	}

	stats.Failed++
	if err != nil {
		logger.Warn().Err(err).Msg("[RecoveryLoop] Scheduled publish errored")
	}
	rec, recErr := l.attempts.RecordFailure(ctx, content.ID, l.now())
	if recErr != nil {
		logger.Error().Err(recErr).Msg("[RecoveryLoop] Cannot record attempt")
		return
	}
	logger.Info().
		Int("attempt", rec.Attempts).
		Int("max_retries", l.cfg.MaxRetries).
		Msg("[RecoveryLoop] Scheduled publish failed")

	if rec.Attempts >= l.cfg.MaxRetries {
		stats.Exhausted++
		l.markFailed(ctx, content)
	}
}

// markFailed retries once on a version conflict, as long as the content is
// still waiting to be published.
func (l *RecoveryLoop) markFailed(ctx context.Context, content *model.Content) {
	version := content.Version
	for attempt := 0; attempt < 2; attempt++ {
		_, err := l.contents.UpdateStatus(ctx, content.ID, version, model.StatusFailed, nil)
		if err == nil {
			log.Warn().Str("content_id", content.ID.String()).Msg("[RecoveryLoop] Retry ceiling reached, content marked failed")
			return
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			log.Error().Err(err).Str("content_id", content.ID.String()).Msg("[RecoveryLoop] Cannot mark content failed")
			return
		}
		fresh, err := l.contents.GetByID(ctx, content.ID)
		if err != nil || fresh.Status != model.StatusApproved {
			return
		}
		version = fresh.Version
	}
}
