package model

import "github.com/google/uuid"

// ================================================
// PUBLISH OPTIONS
// ================================================

type PublishOptions struct {
	ValidateBeforePublish bool `json:"validate_before_publish"`
	AutoFixContent        bool `json:"auto_fix_content"`
	DryRun                bool `json:"dry_run"`
}

func DefaultPublishOptions() PublishOptions {
	return PublishOptions{
		ValidateBeforePublish: true,
		AutoFixContent:        true,
		DryRun:                false,
	}
}

// ================================================
// FORMATTER OUTPUT
// ================================================

type FormatMetadata struct {
	CharacterCount int      `json:"character_count"`
	HashtagCount   int      `json:"hashtag_count"`
	Platform       Platform `json:"platform"`
}

type FormattedContent struct {
	Text     string         `json:"text"`
	Hashtags []string       `json:"hashtags"`
	ImageURL *string        `json:"image_url,omitempty"`
	IsValid  bool           `json:"is_valid"`
	Warnings []string       `json:"warnings"`
	Errors   []string       `json:"errors"`
	Metadata FormatMetadata `json:"metadata"`
}

// ================================================
// PUBLISH RESULTS
// ================================================

type PublishingResult struct {
	Success          bool                   `json:"success"`
	Platform         Platform               `json:"platform"`
	ContentID        uuid.UUID              `json:"content_id"`
	PlatformPostID   *string                `json:"platform_post_id,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Warnings         []string               `json:"warnings,omitempty"`
	FormattedContent *FormattedContent      `json:"formatted_content,omitempty"`
	AdapterResult    map[string]interface{} `json:"adapter_result,omitempty"`
}

type BatchPublishingResult struct {
	Results        []PublishingResult `json:"results"`
	SuccessCount   int                `json:"success_count"`
	FailureCount   int                `json:"failure_count"`
	TotalAttempted int                `json:"total_attempted"`
}

// Add appends r and keeps the counters in step with the results slice.
func (b *BatchPublishingResult) Add(r PublishingResult) {
	b.Results = append(b.Results, r)
	b.TotalAttempted++
	if r.Success {
		b.SuccessCount++
	} else {
		b.FailureCount++
	}
}

// ================================================
// VALIDATION / SCHEDULING / REQUIREMENTS
// ================================================

type PlatformValidation struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type ValidationReport struct {
	IsValid   bool                            `json:"is_valid"`
	Platforms map[Platform]PlatformValidation `json:"platforms"`
}

type ScheduleResult struct {
	Success            bool       `json:"success"`
	Message            string     `json:"message"`
	ScheduledPlatforms []Platform `json:"scheduled_platforms"`
}

type PublishingRequirements struct {
	ConnectedPlatforms []Platform                       `json:"connected_platforms"`
	Requirements       map[Platform]PlatformConstraints `json:"requirements"`
}
