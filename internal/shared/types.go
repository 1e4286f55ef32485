package shared

// Task types handled by the worker
const (
	TypePublishContent = "publishing:publish_content"
)

// Queue names, highest priority first
const (
	QueuePublishing = "publishing"
	QueueDefault    = "default"
)

// PublishContentPayload is the body of a TypePublishContent task. It lives
// here so the queue client and the job handler share it without importing
// each other.
type PublishContentPayload struct {
	BusinessID            string   `json:"business_id"`
	ContentID             string   `json:"content_id"`
	Platforms             []string `json:"platforms"`
	ValidateBeforePublish bool     `json:"validate_before_publish"`
	AutoFixContent        bool     `json:"auto_fix_content"`
	DryRun                bool     `json:"dry_run"`
}

// Context keys set by the auth middleware
const (
	ContextKeyBusinessID = "business_id"
	ContextKeyUserID     = "user_id"
	ContextKeyRequestID  = "request_id"
)
