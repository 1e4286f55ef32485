package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"socialhub-backend/internal/domains/publishing/model"
)

type connectionRepository struct {
	db     *pgxpool.Pool
	tokens TokenOpener
}

// NewConnectionRepository reads platform connections; tokens is nil when
// access tokens are stored unencrypted.
func NewConnectionRepository(db *pgxpool.Pool, tokens TokenOpener) ConnectionRepository {
	return &connectionRepository{db: db, tokens: tokens}
}

func (r *connectionRepository) ListByBusinessID(ctx context.Context, businessID uuid.UUID) ([]model.PlatformConnection, error) {
	query := `
		SELECT id, business_id, platform, access_token, platform_user_id,
			is_active, expires_at, created_at, updated_at
		FROM platform_connections
		WHERE business_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list platform connections: %w", err)
	}
	defer rows.Close()

	var out []model.PlatformConnection
	for rows.Next() {
		var (
			conn     model.PlatformConnection
			platform string
			token    string
		)
		if err := rows.Scan(
			&conn.ID, &conn.BusinessID, &platform, &token, &conn.PlatformUserID,
			&conn.IsActive, &conn.ExpiresAt, &conn.CreatedAt, &conn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan platform connection: %w", err)
		}

		p, err := model.ParsePlatform(platform)
		if err != nil {
			log.Warn().Str("connection_id", conn.ID.String()).Str("platform", platform).
				Msg("[ConnectionRepository] Skipping connection for unknown platform")
			continue
		}
		conn.Platform = p

		if r.tokens != nil && token != "" {
			opened, err := r.tokens.Open(token)
			if err != nil {
				log.Error().Err(err).Str("connection_id", conn.ID.String()).
					Msg("[ConnectionRepository] Cannot decrypt access token, treating connection as inactive")
				conn.IsActive = false
				token = ""
			} else {
				token = opened
			}
		}
		conn.AccessToken = token
		out = append(out, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platform connections: %w", err)
	}
	return out, nil
}
