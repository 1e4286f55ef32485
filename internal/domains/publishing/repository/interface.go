package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"socialhub-backend/internal/domains/publishing/model"
)

// ================================================
// CONTENT REPOSITORY INTERFACE
// ================================================

type ContentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Content, error)

	// UpdateStatus moves content to status only if its stored version still
	// equals expectedVersion, and returns the new version. publishedAt is
	// written as given, so passing nil clears it.
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status model.ContentStatus, publishedAt *time.Time) (int, error)

	Update(ctx context.Context, id uuid.UUID, update model.ContentUpdate) error

	// ListDue returns approved, unpublished content whose scheduled time is at or before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Content, error)
}

// ================================================
// CONNECTION REPOSITORY INTERFACE
// ================================================

type ConnectionRepository interface {
	ListByBusinessID(ctx context.Context, businessID uuid.UUID) ([]model.PlatformConnection, error)
}

// TokenOpener decrypts access tokens stored at rest.
type TokenOpener interface {
	Open(sealed string) (string, error)
}
