package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"socialhub-backend/internal/domains/publishing/model"
)

type pinterestAdapter struct {
	client *apiClient
	creds  Credentials
}

func (a *pinterestAdapter) sealed() {}

func (a *pinterestAdapter) Platform() model.Platform { return model.PlatformPinterest }

// Publish creates a pin on the board stored as the connection's platform user id.
func (a *pinterestAdapter) Publish(ctx context.Context, post Post) PublishResult {
	if post.ImageURL == "" {
		return failure(a.Platform(), errImageRequired)
	}
	body := map[string]interface{}{
		"board_id":    a.creds.PlatformUserID,
		"description": post.Text,
		"media_source": map[string]interface{}{
			"source_type": "image_url",
			"url":         post.ImageURL,
		},
	}
	resp, err := a.client.do(ctx, http.MethodPost, "/v5/pins", a.creds.AccessToken, nil, body)
	if err != nil {
		return failure(a.Platform(), err)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := resp.decode(&out); err != nil {
		return failure(a.Platform(), err)
	}
	return published(a.Platform(), out.ID, map[string]interface{}{"pin_id": out.ID})
}

func (a *pinterestAdapter) FetchPosts(ctx context.Context, limit int) ([]PlatformPost, error) {
	q := url.Values{"page_size": {strconv.Itoa(limit)}}
	resp, err := a.client.do(ctx, http.MethodGet, "/v5/pins", a.creds.AccessToken, q, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Items []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
			Link        string `json:"link"`
			CreatedAt   string `json:"created_at"`
		} `json:"items"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("decode pins: %w", err)
	}
	posts := make([]PlatformPost, 0, len(out.Items))
	for _, p := range out.Items {
		posts = append(posts, PlatformPost{
			ID:        p.ID,
			Text:      p.Description,
			Permalink: p.Link,
			CreatedAt: parseTime("2006-01-02T15:04:05", p.CreatedAt),
		})
	}
	return posts, nil
}

// Pinterest's v5 API has no comment or mention feed.
func (a *pinterestAdapter) FetchInteractions(context.Context, time.Time) ([]model.Interaction, error) {
	return []model.Interaction{}, nil
}

func (a *pinterestAdapter) Reply(context.Context, string, string) error {
	return fmt.Errorf("%w: pinterest", model.ErrInteractionsNotSupported)
}
