package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub-backend/internal/domains/publishing/adapter"
	"socialhub-backend/internal/domains/publishing/model"
	"socialhub-backend/internal/domains/publishing/repository"
	"socialhub-backend/internal/domains/publishing/service"
)

type loopFixture struct {
	loop     *RecoveryLoop
	contents *repository.MemoryContentRepository
	adapters *adapter.SimulatedFactory
	attempts *MemoryAttemptTracker
	svc      service.PublishingService
	clock    time.Time
	business uuid.UUID
}

func newLoopFixture(t *testing.T) *loopFixture {
	t.Helper()
	f := &loopFixture{
		contents: repository.NewMemoryContentRepository(),
		adapters: adapter.NewSimulatedFactory(),
		attempts: NewMemoryAttemptTracker(),
		clock:    time.Now().UTC(),
		business: uuid.New(),
	}
	conns := repository.NewMemoryConnectionRepository()
	conns.Add(model.PlatformConnection{
		BusinessID:  f.business,
		Platform:    model.PlatformFacebook,
		AccessToken: "token",
		IsActive:    true,
	})
	f.svc = service.NewPublishingService(f.contents, conns, f.adapters, nil, nil, nil,
		service.WithAttemptResetter(f.attempts))

	cfg := RecoveryConfig{
		Interval:   time.Hour,
		MaxRetries: 3,
		Backoff:    5 * time.Minute,
		GCAfter:    time.Hour,
		BatchSize:  10,
	}
	f.loop = NewRecoveryLoop(cfg, f.contents, f.svc, f.attempts, nil)
	f.loop.now = func() time.Time { return f.clock }
	return f
}

func (f *loopFixture) addDue(t *testing.T) uuid.UUID {
	t.Helper()
	scheduled := f.clock.Add(-time.Hour)
	c := &model.Content{
		ID:           uuid.New(),
		BusinessID:   f.business,
		Platform:     model.PlatformFacebook,
		Status:       model.StatusApproved,
		Body:         "Weekend brunch is back",
		ScheduledFor: &scheduled,
		Version:      1,
	}
	f.contents.Save(c)
	return c.ID
}

func (f *loopFixture) status(t *testing.T, id uuid.UUID) model.ContentStatus {
	t.Helper()
	c, err := f.contents.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c.Status
}

func TestRecoveryLoop_RetryCeiling(t *testing.T) {
	f := newLoopFixture(t)
	f.adapters.FailPlatform(model.PlatformFacebook, "service unavailable")
	id := f.addDue(t)
	ctx := context.Background()

	stats := f.loop.RunOnce(ctx)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, model.StatusApproved, f.status(t, id))

	f.clock = f.clock.Add(time.Minute)
	stats = f.loop.RunOnce(ctx)
	assert.Equal(t, 1, stats.Deferred, "inside the backoff window")
	assert.Equal(t, 1, f.adapters.PublishCalls(model.PlatformFacebook))

	f.clock = f.clock.Add(5 * time.Minute)
	f.loop.RunOnce(ctx)
	assert.Equal(t, 2, f.adapters.PublishCalls(model.PlatformFacebook))
	assert.Equal(t, model.StatusApproved, f.status(t, id))

	f.clock = f.clock.Add(5 * time.Minute)
	stats = f.loop.RunOnce(ctx)
	assert.Equal(t, 1, stats.Exhausted)
	assert.Equal(t, 3, f.adapters.PublishCalls(model.PlatformFacebook))
	assert.Equal(t, model.StatusFailed, f.status(t, id))

	f.clock = f.clock.Add(30 * time.Minute)
	stats = f.loop.RunOnce(ctx)
	assert.Equal(t, 0, stats.Due)
	assert.Equal(t, 3, f.adapters.PublishCalls(model.PlatformFacebook))
}

func TestRecoveryLoop_SuccessClearsAttempts(t *testing.T) {
	f := newLoopFixture(t)
	f.adapters.FailPlatform(model.PlatformFacebook, "timeout")
	id := f.addDue(t)
	ctx := context.Background()

	f.loop.RunOnce(ctx)
	assert.Equal(t, 1, f.attempts.Len())

	f.adapters.Reset(model.PlatformFacebook)
	f.clock = f.clock.Add(6 * time.Minute)
	stats := f.loop.RunOnce(ctx)

	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 0, f.attempts.Len())
	assert.Equal(t, model.StatusPublished, f.status(t, id))
}

func TestRecoveryLoop_PrunesExhaustedRecords(t *testing.T) {
	f := newLoopFixture(t)
	ctx := context.Background()
	stale := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := f.attempts.RecordFailure(ctx, stale, f.clock.Add(-2*time.Hour))
		require.NoError(t, err)
	}
	fresh := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := f.attempts.RecordFailure(ctx, fresh, f.clock.Add(-10*time.Minute))
		require.NoError(t, err)
	}

	stats := f.loop.RunOnce(ctx)

	assert.Equal(t, 1, stats.Pruned)
	_, found, _ := f.attempts.Get(ctx, stale)
	assert.False(t, found)
	_, found, _ = f.attempts.Get(ctx, fresh)
	assert.True(t, found)
}

func TestRecoveryLoop_ExhaustedRecordMarksFailedWithoutPublishing(t *testing.T) {
	f := newLoopFixture(t)
	ctx := context.Background()
	id := f.addDue(t)
	for i := 0; i < 3; i++ {
		_, err := f.attempts.RecordFailure(ctx, id, f.clock.Add(-time.Minute))
		require.NoError(t, err)
	}

	f.loop.RunOnce(ctx)

	assert.Equal(t, 0, f.adapters.TotalPublishCalls())
	assert.Equal(t, model.StatusFailed, f.status(t, id))
}

func TestRecoveryLoop_RescheduleAfterFailureGetsFreshAttempts(t *testing.T) {
	f := newLoopFixture(t)
	f.adapters.FailPlatform(model.PlatformFacebook, "service unavailable")
	id := f.addDue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.loop.RunOnce(ctx)
		f.clock = f.clock.Add(6 * time.Minute)
	}
	require.Equal(t, model.StatusFailed, f.status(t, id))
	require.Equal(t, 3, f.adapters.PublishCalls(model.PlatformFacebook))

	f.adapters.Reset(model.PlatformFacebook)
	result, err := f.svc.ScheduleContent(ctx, f.business, id, f.clock.Add(-time.Minute), nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, model.StatusApproved, f.status(t, id))
	assert.Equal(t, 0, f.attempts.Len())

	stats := f.loop.RunOnce(ctx)

	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 0, stats.Exhausted)
	assert.Equal(t, 4, f.adapters.PublishCalls(model.PlatformFacebook))
	assert.Equal(t, model.StatusPublished, f.status(t, id))
}

func TestRecoveryLoop_IgnoresAttemptsOlderThanSchedule(t *testing.T) {
	f := newLoopFixture(t)
	ctx := context.Background()
	id := f.addDue(t)
	// recorded by a process that never saw the reschedule
	for i := 0; i < 3; i++ {
		_, err := f.attempts.RecordFailure(ctx, id, f.clock.Add(-2*time.Hour))
		require.NoError(t, err)
	}

	stats := f.loop.RunOnce(ctx)

	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 1, f.adapters.PublishCalls(model.PlatformFacebook))
	assert.Equal(t, model.StatusPublished, f.status(t, id))
	assert.Equal(t, 0, f.attempts.Len())
}

func TestRecoveryLoop_StartStopIdempotent(t *testing.T) {
	f := newLoopFixture(t)

	assert.True(t, f.loop.Start())
	assert.False(t, f.loop.Start())
	assert.True(t, f.loop.Running())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f.loop.Stop(ctx)
	f.loop.Stop(ctx)
	assert.False(t, f.loop.Running())

	assert.True(t, f.loop.Start())
	f.loop.Stop(ctx)
}
