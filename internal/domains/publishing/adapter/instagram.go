package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"socialhub-backend/internal/domains/publishing/model"
)

var errImageRequired = errors.New("an image is required")

type instagramAdapter struct {
	client *apiClient
	creds  Credentials
}

func (a *instagramAdapter) sealed() {}

func (a *instagramAdapter) Platform() model.Platform { return model.PlatformInstagram }

// Publish creates a media container and then publishes it.
func (a *instagramAdapter) Publish(ctx context.Context, post Post) PublishResult {
	if post.ImageURL == "" {
		return failure(a.Platform(), errImageRequired)
	}

	resp, err := a.client.do(ctx, http.MethodPost, fmt.Sprintf("/%s/media", a.creds.PlatformUserID), a.creds.AccessToken, nil,
		map[string]interface{}{"image_url": post.ImageURL, "caption": post.Text})
	if err != nil {
		return failure(a.Platform(), err)
	}
	var container struct {
		ID string `json:"id"`
	}
	if err := resp.decode(&container); err != nil {
		return failure(a.Platform(), err)
	}
	if container.ID == "" {
		return failure(a.Platform(), fmt.Errorf("media container: %w", errMissingPostID))
	}

	resp, err = a.client.do(ctx, http.MethodPost, fmt.Sprintf("/%s/media_publish", a.creds.PlatformUserID), a.creds.AccessToken, nil,
		map[string]interface{}{"creation_id": container.ID})
	if err != nil {
		return failure(a.Platform(), err)
	}
	var media struct {
		ID string `json:"id"`
	}
	if err := resp.decode(&media); err != nil {
		return failure(a.Platform(), err)
	}
	return published(a.Platform(), media.ID, map[string]interface{}{"creation_id": container.ID, "media_id": media.ID})
}

type igMedia struct {
	ID        string `json:"id"`
	Caption   string `json:"caption"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
	Comments  struct {
		Data []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			Username  string `json:"username"`
			Timestamp string `json:"timestamp"`
		} `json:"data"`
	} `json:"comments"`
}

func (a *instagramAdapter) listMedia(ctx context.Context, fields string, limit int) ([]igMedia, error) {
	q := url.Values{"fields": {fields}, "limit": {strconv.Itoa(limit)}}
	resp, err := a.client.do(ctx, http.MethodGet, fmt.Sprintf("/%s/media", a.creds.PlatformUserID), a.creds.AccessToken, q, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []igMedia `json:"data"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("decode instagram media: %w", err)
	}
	return out.Data, nil
}

func (a *instagramAdapter) FetchPosts(ctx context.Context, limit int) ([]PlatformPost, error) {
	media, err := a.listMedia(ctx, "id,caption,permalink,timestamp", limit)
	if err != nil {
		return nil, err
	}
	posts := make([]PlatformPost, 0, len(media))
	for _, m := range media {
		posts = append(posts, PlatformPost{
			ID:        m.ID,
			Text:      m.Caption,
			Permalink: m.Permalink,
			CreatedAt: parseTime(graphTimeLayout, m.Timestamp),
		})
	}
	return posts, nil
}

func (a *instagramAdapter) FetchInteractions(ctx context.Context, since time.Time) ([]model.Interaction, error) {
	media, err := a.listMedia(ctx, "id,comments{id,text,username,timestamp}", 25)
	if err != nil {
		return nil, err
	}
	var interactions []model.Interaction
	for _, m := range media {
		for _, c := range m.Comments.Data {
			created := parseTime(graphTimeLayout, c.Timestamp)
			if created.Before(since) {
				continue
			}
			interactions = append(interactions, model.Interaction{
				ID:         c.ID,
				Platform:   model.PlatformInstagram,
				Type:       model.InteractionComment,
				PostID:     m.ID,
				AuthorName: c.Username,
				Text:       c.Text,
				CreatedAt:  created,
			})
		}
	}
	return interactions, nil
}

func (a *instagramAdapter) Reply(ctx context.Context, targetID, message string) error {
	_, err := a.client.do(ctx, http.MethodPost, fmt.Sprintf("/%s/replies", targetID), a.creds.AccessToken, nil,
		map[string]interface{}{"message": message})
	return err
}
