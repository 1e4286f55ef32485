package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"socialhub-backend/internal/domains/publishing/model"
)

type contentRepository struct {
	db *pgxpool.Pool
}

func NewContentRepository(db *pgxpool.Pool) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `
	id, business_id, platform, content_type, status, title, body, hashtags,
	image_url, image_prompt, scheduled_for, published_at, platform_post_id,
	target_platforms, platform_post_ids, metadata, version, created_at, updated_at`

// GetByID retrieves content by ID
func (r *contentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`

	c, err := scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrContentNotFound
		}
		return nil, fmt.Errorf("get content by id: %w", err)
	}
	return c, nil
}

// UpdateStatus is a compare-and-set on the version column
func (r *contentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status model.ContentStatus, publishedAt *time.Time) (int, error) {
	query := `
		UPDATE contents
		SET status = $2, published_at = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $4
		RETURNING version
	`

	var version int
	err := r.db.QueryRow(ctx, query, id, string(status), publishedAt, expectedVersion).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("update content status: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM contents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check content exists: %w", err)
	}
	if !exists {
		return 0, model.ErrContentNotFound
	}
	return 0, model.ErrVersionConflict
}

// Update writes the non-nil fields of update
func (r *contentRepository) Update(ctx context.Context, id uuid.UUID, update model.ContentUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(clause, len(args)))
	}

	if update.PlatformPostID != nil {
		add("platform_post_id = $%d", *update.PlatformPostID)
	}
	if update.PlatformPostIDs != nil {
		raw, err := json.Marshal(update.PlatformPostIDs)
		if err != nil {
			return fmt.Errorf("marshal platform post ids: %w", err)
		}
		add("platform_post_ids = $%d", raw)
	}
	if update.ScheduledFor != nil {
		add("scheduled_for = $%d", *update.ScheduledFor)
	}
	if update.TargetPlatforms != nil {
		add("target_platforms = $%d", pq.Array(platformStrings(update.TargetPlatforms)))
	}
	if update.Metadata != nil {
		add("metadata = COALESCE(metadata, '{}'::jsonb) || $%d::jsonb", update.Metadata)
	}

	query := fmt.Sprintf(`UPDATE contents SET %s WHERE id = $1`, strings.Join(sets, ", "))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrContentNotFound
	}
	return nil
}

// ListDue returns content the recovery loop should attempt, oldest schedule first
func (r *contentRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Content, error) {
	query := `SELECT ` + contentColumns + `
		FROM contents
		WHERE status = $1
			AND scheduled_for IS NOT NULL
			AND scheduled_for <= $2
			AND published_at IS NULL
		ORDER BY scheduled_for ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, string(model.StatusApproved), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due content: %w", err)
	}
	defer rows.Close()

	var out []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due content: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due content: %w", err)
	}
	return out, nil
}

func scanContent(row pgx.Row) (*model.Content, error) {
	var (
		c        model.Content
		platform string
		ctype    string
		status   string
		targets  []string
		postIDs  []byte
	)
	err := row.Scan(
		&c.ID, &c.BusinessID, &platform, &ctype, &status, &c.Title, &c.Body, pq.Array(&c.Hashtags),
		&c.ImageURL, &c.ImagePrompt, &c.ScheduledFor, &c.PublishedAt, &c.PlatformPostID,
		pq.Array(&targets), &postIDs, &c.Metadata, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Platform = model.Platform(platform)
	c.ContentType = model.ContentType(ctype)
	c.Status = model.ContentStatus(status)
	for _, t := range targets {
		p, err := model.ParsePlatform(t)
		if err != nil {
			return nil, fmt.Errorf("content %s target: %w", c.ID, err)
		}
		c.TargetPlatforms = append(c.TargetPlatforms, p)
	}
	if len(postIDs) > 0 {
		if err := json.Unmarshal(postIDs, &c.PlatformPostIDs); err != nil {
			return nil, fmt.Errorf("content %s platform post ids: %w", c.ID, err)
		}
	}
	return &c, nil
}

func platformStrings(ps []model.Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
