package model

import "time"

type InteractionType string

const (
	InteractionComment InteractionType = "comment"
	InteractionMention InteractionType = "mention"
	InteractionReply   InteractionType = "reply"
)

// Interaction is a comment, mention or reply pulled from a connected account.
type Interaction struct {
	ID         string          `json:"id"`
	Platform   Platform        `json:"platform"`
	Type       InteractionType `json:"type"`
	PostID     string          `json:"post_id,omitempty"`
	AuthorName string          `json:"author_name,omitempty"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"created_at"`
}

type InteractionsResult struct {
	Interactions []Interaction        `json:"interactions"`
	Errors       map[Platform]string `json:"errors,omitempty"`
}
