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

const linkedInRecentPosts = 5

type linkedinAdapter struct {
	client *apiClient
	creds  Credentials
}

func (a *linkedinAdapter) sealed() {}

func (a *linkedinAdapter) Platform() model.Platform { return model.PlatformLinkedIn }

func (a *linkedinAdapter) author() string {
	return "urn:li:person:" + a.creds.PlatformUserID
}

func (a *linkedinAdapter) Publish(ctx context.Context, post Post) PublishResult {
	share := map[string]interface{}{
		"shareCommentary":    map[string]interface{}{"text": post.Text},
		"shareMediaCategory": "NONE",
	}
	if post.ImageURL != "" {
		share["shareMediaCategory"] = "ARTICLE"
		share["media"] = []map[string]interface{}{{"status": "READY", "originalUrl": post.ImageURL}}
	}
	body := map[string]interface{}{
		"author":          a.author(),
		"lifecycleState":  "PUBLISHED",
		"specificContent": map[string]interface{}{"com.linkedin.ugc.ShareContent": share},
		"visibility":      map[string]interface{}{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	resp, err := a.client.do(ctx, http.MethodPost, "/v2/ugcPosts", a.creds.AccessToken, nil, body)
	if err != nil {
		return failure(a.Platform(), err)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := resp.decode(&out); err != nil {
		return failure(a.Platform(), err)
	}
	id := out.ID
	if id == "" {
		id = resp.Header.Get("X-RestLi-Id")
	}
	return published(a.Platform(), id, map[string]interface{}{"urn": id})
}

type linkedInPost struct {
	ID              string               `json:"id"`
	Created         struct{ Time int64 } `json:"created"`
	SpecificContent struct {
		Share struct {
			Commentary struct {
				Text string `json:"text"`
			} `json:"shareCommentary"`
		} `json:"com.linkedin.ugc.ShareContent"`
	} `json:"specificContent"`
}

func (a *linkedinAdapter) FetchPosts(ctx context.Context, limit int) ([]PlatformPost, error) {
	q := url.Values{
		"q":       {"authors"},
		"authors": {fmt.Sprintf("List(%s)", a.author())},
		"count":   {strconv.Itoa(limit)},
	}
	resp, err := a.client.do(ctx, http.MethodGet, "/v2/ugcPosts", a.creds.AccessToken, q, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Elements []linkedInPost `json:"elements"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("decode linkedin posts: %w", err)
	}
	posts := make([]PlatformPost, 0, len(out.Elements))
	for _, e := range out.Elements {
		posts = append(posts, PlatformPost{
			ID:        e.ID,
			Text:      e.SpecificContent.Share.Commentary.Text,
			CreatedAt: time.UnixMilli(e.Created.Time).UTC(),
		})
	}
	return posts, nil
}

// FetchInteractions walks the comments of the most recent posts.
func (a *linkedinAdapter) FetchInteractions(ctx context.Context, since time.Time) ([]model.Interaction, error) {
	posts, err := a.FetchPosts(ctx, linkedInRecentPosts)
	if err != nil {
		return nil, err
	}

	var interactions []model.Interaction
	for _, p := range posts {
		resp, err := a.client.do(ctx, http.MethodGet, "/v2/socialActions/"+url.PathEscape(p.ID)+"/comments", a.creds.AccessToken, nil, nil)
		if err != nil {
			return nil, err
		}
		var out struct {
			Elements []struct {
				ID      string `json:"id"`
				Actor   string `json:"actor"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
				Created struct{ Time int64 } `json:"created"`
			} `json:"elements"`
		}
		if err := resp.decode(&out); err != nil {
			return nil, fmt.Errorf("decode linkedin comments: %w", err)
		}
		for _, c := range out.Elements {
			created := time.UnixMilli(c.Created.Time).UTC()
			if created.Before(since) {
				continue
			}
			interactions = append(interactions, model.Interaction{
				ID:         c.ID,
				Platform:   model.PlatformLinkedIn,
				Type:       model.InteractionComment,
				PostID:     p.ID,
				AuthorName: c.Actor,
				Text:       c.Message.Text,
				CreatedAt:  created,
			})
		}
	}
	return interactions, nil
}

func (a *linkedinAdapter) Reply(ctx context.Context, targetID, message string) error {
	body := map[string]interface{}{
		"actor":   a.author(),
		"message": map[string]interface{}{"text": message},
	}
	_, err := a.client.do(ctx, http.MethodPost, "/v2/socialActions/"+url.PathEscape(targetID)+"/comments", a.creds.AccessToken, nil, body)
	return err
}
