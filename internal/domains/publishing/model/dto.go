package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ================================================
// REQUEST DTOs
// ================================================

// PublishRequest - single platform publish
type PublishRequest struct {
	Platform              string `json:"platform"`
	ValidateBeforePublish *bool  `json:"validate_before_publish,omitempty"`
	AutoFixContent        *bool  `json:"auto_fix_content,omitempty"`
	DryRun                bool   `json:"dry_run"`
}

func (r PublishRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Platform,
			validation.Required.Error("platform is required"),
			validation.In(platformValues()...).Error("unsupported platform"),
		),
	)
}

func (r PublishRequest) Options() PublishOptions {
	return buildOptions(r.ValidateBeforePublish, r.AutoFixContent, r.DryRun)
}

// BatchPublishRequest - publish one content item to several platforms
type BatchPublishRequest struct {
	Platforms             []string `json:"platforms"`
	ValidateBeforePublish *bool    `json:"validate_before_publish,omitempty"`
	AutoFixContent        *bool    `json:"auto_fix_content,omitempty"`
	DryRun                bool     `json:"dry_run"`
}

func (r BatchPublishRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Platforms,
			validation.Required.Error("at least one platform is required"),
			validation.Length(1, len(supportedPlatforms)*2),
			validation.Each(validation.In(platformValues()...).Error("unsupported platform")),
		),
	)
}

func (r BatchPublishRequest) Options() PublishOptions {
	return buildOptions(r.ValidateBeforePublish, r.AutoFixContent, r.DryRun)
}

// ValidateContentRequest - platforms may be empty, meaning every supported platform
type ValidateContentRequest struct {
	Platforms []string `json:"platforms"`
}

func (r ValidateContentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Platforms,
			validation.Each(validation.In(platformValues()...).Error("unsupported platform")),
		),
	)
}

// ScheduleRequest - platforms may be empty, meaning the content's own platform
type ScheduleRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Platforms    []string  `json:"platforms"`
}

func (r ScheduleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ScheduledFor, validation.Required.Error("scheduled_for is required")),
		validation.Field(&r.Platforms,
			validation.Each(validation.In(platformValues()...).Error("unsupported platform")),
		),
	)
}

func platformValues() []interface{} {
	out := make([]interface{}, len(supportedPlatforms))
	for i, p := range supportedPlatforms {
		out[i] = string(p)
	}
	return out
}

func buildOptions(validate, autoFix *bool, dryRun bool) PublishOptions {
	opts := DefaultPublishOptions()
	if validate != nil {
		opts.ValidateBeforePublish = *validate
	}
	if autoFix != nil {
		opts.AutoFixContent = *autoFix
	}
	opts.DryRun = dryRun
	return opts
}
