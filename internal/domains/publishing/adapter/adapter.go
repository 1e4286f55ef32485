// Package adapter talks to the social platform APIs.
//
// The Adapter interface is sealed: only this package can implement it, and
// HTTPFactory switches over every supported platform, so adding a platform
// means touching model.Platform, the constraints table and the factory.
package adapter

import (
	"context"
	"time"

	"socialhub-backend/internal/domains/publishing/model"
)

// Post is the already-formatted payload handed to a platform.
type Post struct {
	Text         string
	ImageURL     string
	ScheduledFor *time.Time
}

// PublishResult never carries an error value; failures are described in Error.
type PublishResult struct {
	Success        bool
	PlatformPostID string
	Error          string
	Raw            map[string]interface{}
}

type PlatformPost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Permalink string    `json:"permalink,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Credentials struct {
	AccessToken    string
	PlatformUserID string
}

type Adapter interface {
	Platform() model.Platform
	Publish(ctx context.Context, post Post) PublishResult
	FetchPosts(ctx context.Context, limit int) ([]PlatformPost, error)
	FetchInteractions(ctx context.Context, since time.Time) ([]model.Interaction, error)
	Reply(ctx context.Context, targetID, message string) error

	sealed()
}

// Factory builds an adapter for one connected account.
type Factory interface {
	New(platform model.Platform, creds Credentials) (Adapter, error)
}

// ================================================
// HTTP FACTORY
// ================================================

type Endpoints struct {
	Graph     string // Facebook and Instagram
	LinkedIn  string
	Twitter   string
	Pinterest string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Graph:     "https://graph.facebook.com/v19.0",
		LinkedIn:  "https://api.linkedin.com",
		Twitter:   "https://api.twitter.com",
		Pinterest: "https://api.pinterest.com",
	}
}

type HTTPFactory struct {
	clients map[model.Platform]*apiClient
}

func NewHTTPFactory(endpoints Endpoints, cfg ClientConfig) *HTTPFactory {
	return &HTTPFactory{
		clients: map[model.Platform]*apiClient{
			model.PlatformFacebook:  newAPIClient(model.PlatformFacebook, endpoints.Graph, cfg),
			model.PlatformInstagram: newAPIClient(model.PlatformInstagram, endpoints.Graph, cfg),
			model.PlatformLinkedIn:  newAPIClient(model.PlatformLinkedIn, endpoints.LinkedIn, cfg),
			model.PlatformTwitter:   newAPIClient(model.PlatformTwitter, endpoints.Twitter, cfg),
			model.PlatformPinterest: newAPIClient(model.PlatformPinterest, endpoints.Pinterest, cfg),
		},
	}
}

func (f *HTTPFactory) New(platform model.Platform, creds Credentials) (Adapter, error) {
	client := f.clients[platform]
	switch platform {
	case model.PlatformFacebook:
		return &facebookAdapter{client: client, creds: creds}, nil
	case model.PlatformInstagram:
		return &instagramAdapter{client: client, creds: creds}, nil
	case model.PlatformLinkedIn:
		return &linkedinAdapter{client: client, creds: creds}, nil
	case model.PlatformTwitter:
		return &twitterAdapter{client: client, creds: creds}, nil
	case model.PlatformPinterest:
		return &pinterestAdapter{client: client, creds: creds}, nil
	default:
		return nil, model.ErrUnsupportedPlatform
	}
}
