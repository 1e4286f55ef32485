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

const graphTimeLayout = "2006-01-02T15:04:05-0700"

type facebookAdapter struct {
	client *apiClient
	creds  Credentials
}

func (a *facebookAdapter) sealed() {}

func (a *facebookAdapter) Platform() model.Platform { return model.PlatformFacebook }

// Publish posts to the page feed, or to the page photos when an image is attached.
func (a *facebookAdapter) Publish(ctx context.Context, post Post) PublishResult {
	path := fmt.Sprintf("/%s/feed", a.creds.PlatformUserID)
	body := map[string]interface{}{"message": post.Text}
	if post.ImageURL != "" {
		path = fmt.Sprintf("/%s/photos", a.creds.PlatformUserID)
		body = map[string]interface{}{"caption": post.Text, "url": post.ImageURL}
	}
	if post.ScheduledFor != nil && post.ScheduledFor.After(time.Now()) {
		body["published"] = false
		body["scheduled_publish_time"] = post.ScheduledFor.Unix()
	}

	resp, err := a.client.do(ctx, http.MethodPost, path, a.creds.AccessToken, nil, body)
	if err != nil {
		return failure(a.Platform(), err)
	}

	var out struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := resp.decode(&out); err != nil {
		return failure(a.Platform(), err)
	}
	id := out.PostID
	if id == "" {
		id = out.ID
	}
	return published(a.Platform(), id, map[string]interface{}{"id": out.ID, "post_id": out.PostID})
}

type graphComment struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	From        struct {
		Name string `json:"name"`
	} `json:"from"`
}

type graphPost struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	Permalink   string `json:"permalink_url"`
	Comments    struct {
		Data []graphComment `json:"data"`
	} `json:"comments"`
}

func (a *facebookAdapter) FetchPosts(ctx context.Context, limit int) ([]PlatformPost, error) {
	q := url.Values{
		"fields": {"id,message,created_time,permalink_url"},
		"limit":  {strconv.Itoa(limit)},
	}
	resp, err := a.client.do(ctx, http.MethodGet, fmt.Sprintf("/%s/posts", a.creds.PlatformUserID), a.creds.AccessToken, q, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []graphPost `json:"data"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("decode facebook posts: %w", err)
	}

	posts := make([]PlatformPost, 0, len(out.Data))
	for _, p := range out.Data {
		posts = append(posts, PlatformPost{
			ID:        p.ID,
			Text:      p.Message,
			Permalink: p.Permalink,
			CreatedAt: parseTime(graphTimeLayout, p.CreatedTime),
		})
	}
	return posts, nil
}

// FetchInteractions returns comments left on recent page posts since the given time.
func (a *facebookAdapter) FetchInteractions(ctx context.Context, since time.Time) ([]model.Interaction, error) {
	q := url.Values{
		"fields": {"id,comments.limit(50){id,message,created_time,from}"},
		"since":  {strconv.FormatInt(since.Unix(), 10)},
		"limit":  {"25"},
	}
	resp, err := a.client.do(ctx, http.MethodGet, fmt.Sprintf("/%s/posts", a.creds.PlatformUserID), a.creds.AccessToken, q, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []graphPost `json:"data"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("decode facebook comments: %w", err)
	}

	var interactions []model.Interaction
	for _, p := range out.Data {
		for _, c := range p.Comments.Data {
			created := parseTime(graphTimeLayout, c.CreatedTime)
			if created.Before(since) {
				continue
			}
			interactions = append(interactions, model.Interaction{
				ID:         c.ID,
				Platform:   model.PlatformFacebook,
				Type:       model.InteractionComment,
				PostID:     p.ID,
				AuthorName: c.From.Name,
				Text:       c.Message,
				CreatedAt:  created,
			})
		}
	}
	return interactions, nil
}

func (a *facebookAdapter) Reply(ctx context.Context, targetID, message string) error {
	_, err := a.client.do(ctx, http.MethodPost, fmt.Sprintf("/%s/comments", targetID), a.creds.AccessToken, nil,
		map[string]interface{}{"message": message})
	return err
}

func parseTime(layout, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, value); err != nil {
			return time.Time{}
		}
	}
	return t
}
