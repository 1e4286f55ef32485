package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"socialhub-backend/internal/domains/publishing/model"
)

// ================================================
// IN-MEMORY REPOSITORIES
// ================================================

// MemoryContentRepository backs tests and the simulated deployment mode.
type MemoryContentRepository struct {
	mu       sync.RWMutex
	contents map[uuid.UUID]*model.Content
	now      func() time.Time
}

func NewMemoryContentRepository() *MemoryContentRepository {
	return &MemoryContentRepository{
		contents: make(map[uuid.UUID]*model.Content),
		now:      time.Now,
	}
}

// Save stores a copy of c, replacing any existing row with the same ID.
func (r *MemoryContentRepository) Save(c *model.Content) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contents[c.ID] = c.Clone()
}

func (r *MemoryContentRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contents[id]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryContentRepository) UpdateStatus(_ context.Context, id uuid.UUID, expectedVersion int, status model.ContentStatus, publishedAt *time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contents[id]
	if !ok {
		return 0, model.ErrContentNotFound
	}
	if c.Version != expectedVersion {
		return 0, model.ErrVersionConflict
	}
	c.Status = status
	if publishedAt != nil {
		t := *publishedAt
		c.PublishedAt = &t
	} else {
		c.PublishedAt = nil
	}
	c.Version++
	c.UpdatedAt = r.now()
	return c.Version, nil
}

func (r *MemoryContentRepository) Update(_ context.Context, id uuid.UUID, update model.ContentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contents[id]
	if !ok {
		return model.ErrContentNotFound
	}
	if update.PlatformPostID != nil {
		v := *update.PlatformPostID
		c.PlatformPostID = &v
	}
	if update.PlatformPostIDs != nil {
		c.PlatformPostIDs = make(map[model.Platform]string, len(update.PlatformPostIDs))
		for k, v := range update.PlatformPostIDs {
			c.PlatformPostIDs[k] = v
		}
	}
	if update.ScheduledFor != nil {
		t := *update.ScheduledFor
		c.ScheduledFor = &t
	}
	if update.TargetPlatforms != nil {
		c.TargetPlatforms = append([]model.Platform(nil), update.TargetPlatforms...)
	}
	if update.Metadata != nil {
		if c.Metadata == nil {
			c.Metadata = make(model.JSONB, len(update.Metadata))
		}
		for k, v := range update.Metadata {
			c.Metadata[k] = v
		}
	}
	c.UpdatedAt = r.now()
	return nil
}

func (r *MemoryContentRepository) ListDue(_ context.Context, now time.Time, limit int) ([]model.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []model.Content
	for _, c := range r.contents {
		if c.Status != model.StatusApproved || c.ScheduledFor == nil || c.PublishedAt != nil {
			continue
		}
		if c.ScheduledFor.After(now) {
			continue
		}
		due = append(due, *c.Clone())
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledFor.Before(*due[j].ScheduledFor)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// MemoryConnectionRepository holds connections keyed by business.
type MemoryConnectionRepository struct {
	mu    sync.RWMutex
	conns map[uuid.UUID][]model.PlatformConnection
}

func NewMemoryConnectionRepository() *MemoryConnectionRepository {
	return &MemoryConnectionRepository{conns: make(map[uuid.UUID][]model.PlatformConnection)}
}

func (r *MemoryConnectionRepository) Add(conn model.PlatformConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	r.conns[conn.BusinessID] = append(r.conns[conn.BusinessID], conn)
}

func (r *MemoryConnectionRepository) ListByBusinessID(_ context.Context, businessID uuid.UUID) ([]model.PlatformConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.PlatformConnection(nil), r.conns[businessID]...), nil
}
