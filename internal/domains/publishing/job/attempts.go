package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AttemptRecord counts scheduled publish failures for one content item.
type AttemptRecord struct {
	Attempts    int
	LastAttempt time.Time
}

type AttemptTracker interface {
	Get(ctx context.Context, contentID uuid.UUID) (AttemptRecord, bool, error)
	RecordFailure(ctx context.Context, contentID uuid.UUID, at time.Time) (AttemptRecord, error)
	Clear(ctx context.Context, contentID uuid.UUID) error
	// PruneExhausted drops records that reached ceiling and were last touched before cutoff.
	PruneExhausted(ctx context.Context, ceiling int, cutoff time.Time) (int, error)
}

// MemoryAttemptTracker keeps attempts in process memory; counts are lost on restart.
type MemoryAttemptTracker struct {
	mu      sync.Mutex
	records map[uuid.UUID]AttemptRecord
}

func NewMemoryAttemptTracker() *MemoryAttemptTracker {
	return &MemoryAttemptTracker{records: make(map[uuid.UUID]AttemptRecord)}
}

func (t *MemoryAttemptTracker) Get(_ context.Context, id uuid.UUID) (AttemptRecord, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	return rec, ok, nil
}

func (t *MemoryAttemptTracker) RecordFailure(_ context.Context, id uuid.UUID, at time.Time) (AttemptRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[id]
	rec.Attempts++
	rec.LastAttempt = at
	t.records[id] = rec
	return rec, nil
}

func (t *MemoryAttemptTracker) Clear(_ context.Context, id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, id)
	return nil
}

func (t *MemoryAttemptTracker) PruneExhausted(_ context.Context, ceiling int, cutoff time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pruned := 0
	for id, rec := range t.records {
		if rec.Attempts >= ceiling && rec.LastAttempt.Before(cutoff) {
			delete(t.records, id)
			pruned++
		}
	}
	return pruned, nil
}

func (t *MemoryAttemptTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
