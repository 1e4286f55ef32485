package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub-backend/internal/domains/publishing/model"
)

func TestMemoryContentRepository_UpdateStatusChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	c := &model.Content{ID: uuid.New(), Status: model.StatusApproved, Version: 3}
	repo.Save(c)

	now := time.Now()
	v, err := repo.UpdateStatus(ctx, c.ID, 3, model.StatusPublished, &now)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	_, err = repo.UpdateStatus(ctx, c.ID, 3, model.StatusFailed, nil)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	_, err = repo.UpdateStatus(ctx, uuid.New(), 0, model.StatusFailed, nil)
	assert.ErrorIs(t, err, model.ErrContentNotFound)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
}

func TestMemoryContentRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	c := &model.Content{ID: uuid.New(), Hashtags: []string{"a"}}
	repo.Save(c)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Hashtags[0] = "changed"

	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Hashtags[0])
}

func TestMemoryContentRepository_ListDue(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	early := &model.Content{ID: uuid.New(), Status: model.StatusApproved, ScheduledFor: at(-2 * time.Hour)}
	late := &model.Content{ID: uuid.New(), Status: model.StatusApproved, ScheduledFor: at(-time.Minute)}
	future := &model.Content{ID: uuid.New(), Status: model.StatusApproved, ScheduledFor: at(time.Hour)}
	draft := &model.Content{ID: uuid.New(), Status: model.StatusDraft, ScheduledFor: at(-time.Hour)}
	failed := &model.Content{ID: uuid.New(), Status: model.StatusFailed, ScheduledFor: at(-time.Hour)}
	for _, c := range []*model.Content{late, future, draft, early, failed} {
		repo.Save(c)
	}

	due, err := repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)

	limited, err := repo.ListDue(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryContentRepository_UpdateMergesMetadata(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	c := &model.Content{ID: uuid.New(), Metadata: model.JSONB{"a": 1}}
	repo.Save(c)

	postID := "fb_1"
	require.NoError(t, repo.Update(ctx, c.ID, model.ContentUpdate{
		PlatformPostID:  &postID,
		PlatformPostIDs: map[model.Platform]string{model.PlatformFacebook: postID},
		Metadata:        model.JSONB{"b": 2},
	}))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JSONB{"a": 1, "b": 2}, got.Metadata)
	assert.Equal(t, "fb_1", *got.PlatformPostID)
	assert.Equal(t, "fb_1", got.PlatformPostIDs[model.PlatformFacebook])

	assert.ErrorIs(t, repo.Update(ctx, uuid.New(), model.ContentUpdate{}), model.ErrContentNotFound)
}
