package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ================================================
// CONTENT ENTITY
// ================================================

type ContentStatus string

const (
	StatusDraft           ContentStatus = "draft"
	StatusPendingApproval ContentStatus = "pending_approval"
	StatusApproved        ContentStatus = "approved"
	StatusPublished       ContentStatus = "published"
	StatusFailed          ContentStatus = "failed"
)

type ContentType string

const (
	ContentTypeEducational  ContentType = "educational"
	ContentTypePromotional  ContentType = "promotional"
	ContentTypeCommunity    ContentType = "community"
	ContentTypeHumorous     ContentType = "humorous"
	ContentTypeNews         ContentType = "news"
	ContentTypeBehindScenes ContentType = "behind_scenes"
)

type Content struct {
	ID              uuid.UUID           `json:"id"`
	BusinessID      uuid.UUID           `json:"business_id"`
	Platform        Platform            `json:"platform"`
	ContentType     ContentType         `json:"content_type"`
	Status          ContentStatus       `json:"status"`
	Title           *string             `json:"title,omitempty"`
	Body            string              `json:"body"`
	Hashtags        []string            `json:"hashtags"`
	ImageURL        *string             `json:"image_url,omitempty"`
	ImagePrompt     *string             `json:"image_prompt,omitempty"`
	ScheduledFor    *time.Time          `json:"scheduled_for,omitempty"`
	PublishedAt     *time.Time          `json:"published_at,omitempty"`
	PlatformPostID  *string             `json:"platform_post_id,omitempty"`
	TargetPlatforms []Platform          `json:"target_platforms,omitempty"`
	PlatformPostIDs map[Platform]string `json:"platform_post_ids,omitempty"`
	Metadata        JSONB               `json:"metadata,omitempty"`
	Version         int                 `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (c *Content) IsOwnedBy(businessID uuid.UUID) bool {
	return c.BusinessID == businessID
}

// Targets is the scheduled platform list, falling back to the primary platform.
func (c *Content) Targets() []Platform {
	if len(c.TargetPlatforms) > 0 {
		return append([]Platform(nil), c.TargetPlatforms...)
	}
	return []Platform{c.Platform}
}

// PendingTargets are the targets that have no recorded platform post id yet.
func (c *Content) PendingTargets() []Platform {
	var pending []Platform
	for _, p := range c.Targets() {
		if _, done := c.PlatformPostIDs[p]; !done {
			pending = append(pending, p)
		}
	}
	return pending
}

// Clone returns a deep copy so repositories never hand out shared state.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	out := *c
	out.Title = cloneString(c.Title)
	out.ImageURL = cloneString(c.ImageURL)
	out.ImagePrompt = cloneString(c.ImagePrompt)
	out.PlatformPostID = cloneString(c.PlatformPostID)
	out.ScheduledFor = cloneTime(c.ScheduledFor)
	out.PublishedAt = cloneTime(c.PublishedAt)
	out.Hashtags = append([]string(nil), c.Hashtags...)
	out.TargetPlatforms = append([]Platform(nil), c.TargetPlatforms...)
	if c.PlatformPostIDs != nil {
		out.PlatformPostIDs = make(map[Platform]string, len(c.PlatformPostIDs))
		for k, v := range c.PlatformPostIDs {
			out.PlatformPostIDs[k] = v
		}
	}
	if c.Metadata != nil {
		out.Metadata = make(JSONB, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ContentUpdate carries the non-status fields the publisher writes back.
// Nil fields are left unchanged.
type ContentUpdate struct {
	PlatformPostID  *string
	PlatformPostIDs map[Platform]string
	ScheduledFor    *time.Time
	TargetPlatforms []Platform
	Metadata        JSONB // merged into the existing metadata
}

// ================================================
// PLATFORM CONNECTION
// ================================================

type PlatformConnection struct {
	ID             uuid.UUID  `json:"id"`
	BusinessID     uuid.UUID  `json:"business_id"`
	Platform       Platform   `json:"platform"`
	AccessToken    string     `json:"-"`
	PlatformUserID string     `json:"platform_user_id"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Usable reports whether an adapter may be built from this connection.
func (c PlatformConnection) Usable(now time.Time) bool {
	if !c.IsActive || c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

// ================================================
// JSONB
// ================================================

type JSONB map[string]interface{}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ErrInvalidJSONB
	}

	result := make(JSONB)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(j))
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
