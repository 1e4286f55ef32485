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

type twitterAdapter struct {
	client *apiClient
	creds  Credentials
}

func (a *twitterAdapter) sealed() {}

func (a *twitterAdapter) Platform() model.Platform { return model.PlatformTwitter }

type tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
}

func (a *twitterAdapter) Publish(ctx context.Context, post Post) PublishResult {
	return a.tweet(ctx, map[string]interface{}{"text": post.Text}, post.ImageURL)
}

func (a *twitterAdapter) tweet(ctx context.Context, body map[string]interface{}, imageURL string) PublishResult {
	resp, err := a.client.do(ctx, http.MethodPost, "/2/tweets", a.creds.AccessToken, nil, body)
	if err != nil {
		return failure(a.Platform(), err)
	}
	var out struct {
		Data tweet `json:"data"`
	}
	if err := resp.decode(&out); err != nil {
		return failure(a.Platform(), err)
	}
	raw := map[string]interface{}{"id": out.Data.ID, "text": out.Data.Text}
	if imageURL != "" {
		// media upload goes through the v1.1 upload endpoint, which needs OAuth 1.0a user context
		raw["image_skipped"] = imageURL
	}
	return published(a.Platform(), out.Data.ID, raw)
}

func (a *twitterAdapter) FetchPosts(ctx context.Context, limit int) ([]PlatformPost, error) {
	if limit < 5 {
		limit = 5
	}
	q := url.Values{"max_results": {strconv.Itoa(limit)}, "tweet.fields": {"created_at"}}
	tweets, err := a.list(ctx, fmt.Sprintf("/2/users/%s/tweets", a.creds.PlatformUserID), q)
	if err != nil {
		return nil, err
	}
	posts := make([]PlatformPost, 0, len(tweets))
	for _, t := range tweets {
		posts = append(posts, PlatformPost{
			ID:        t.ID,
			Text:      t.Text,
			Permalink: "https://twitter.com/i/web/status/" + t.ID,
			CreatedAt: parseTime(time.RFC3339, t.CreatedAt),
		})
	}
	return posts, nil
}

// FetchInteractions returns mentions of the connected account.
func (a *twitterAdapter) FetchInteractions(ctx context.Context, since time.Time) ([]model.Interaction, error) {
	q := url.Values{
		"start_time":   {since.UTC().Format(time.RFC3339)},
		"tweet.fields": {"created_at,author_id"},
	}
	tweets, err := a.list(ctx, fmt.Sprintf("/2/users/%s/mentions", a.creds.PlatformUserID), q)
	if err != nil {
		return nil, err
	}
	interactions := make([]model.Interaction, 0, len(tweets))
	for _, t := range tweets {
		interactions = append(interactions, model.Interaction{
			ID:         t.ID,
			Platform:   model.PlatformTwitter,
			Type:       model.InteractionMention,
			AuthorName: t.AuthorID,
			Text:       t.Text,
			CreatedAt:  parseTime(time.RFC3339, t.CreatedAt),
		})
	}
	return interactions, nil
}

func (a *twitterAdapter) list(ctx context.Context, path string, q url.Values) ([]tweet, error) {
	resp, err := a.client.do(ctx, http.MethodGet, path, a.creds.AccessToken, q, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []tweet `json:"data"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("decode tweets: %w", err)
	}
	return out.Data, nil
}

func (a *twitterAdapter) Reply(ctx context.Context, targetID, message string) error {
	res := a.tweet(ctx, map[string]interface{}{
		"text":  message,
		"reply": map[string]interface{}{"in_reply_to_tweet_id": targetID},
	}, "")
	if !res.Success {
		return fmt.Errorf("reply to tweet %s: %s", targetID, res.Error)
	}
	return nil
}
