package model

import (
	"errors"
	"fmt"
)

// ================================================
// DOMAIN-SPECIFIC ERRORS
// ================================================

// Content errors
var (
	ErrContentNotFound          = errors.New("content not found")
	ErrContentAccessDenied      = errors.New("content does not belong to this business")
	ErrVersionConflict          = errors.New("content was modified concurrently")
	ErrInvalidStatusTransition  = errors.New("invalid content status transition")
	ErrInvalidSchedule          = errors.New("scheduled time is required")
	ErrInvalidJSONB             = errors.New("invalid JSONB data")
	ErrNoActiveConnection       = errors.New("no active connection for platform")
	ErrPublishInProgress        = errors.New("content is already being published")
	ErrUnsupportedPlatform      = errors.New("unsupported platform")
	ErrMediaStorageUnavailable  = errors.New("media storage is not configured")
	ErrInteractionsNotSupported = errors.New("platform does not expose interactions")
)

// ================================================
// ERROR CODES (for API responses)
// ================================================

const (
	ErrCodeContentNotFound     = "CONTENT_NOT_FOUND"
	ErrCodeContentAccessDenied = "CONTENT_ACCESS_DENIED"
	ErrCodeVersionConflict     = "VERSION_CONFLICT"
	ErrCodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidSchedule     = "INVALID_SCHEDULE"
	ErrCodeNoActiveConnection  = "NO_ACTIVE_CONNECTION"
	ErrCodePublishInProgress   = "PUBLISH_IN_PROGRESS"
	ErrCodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ================================================
// CUSTOM ERROR TYPE
// ================================================

type PublishingError struct {
	Code    string
	Message string
	Err     error
}

func (e *PublishingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PublishingError) Unwrap() error {
	return e.Err
}

func NewPublishingError(code, message string, err error) *PublishingError {
	return &PublishingError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeFor maps a domain error to its API error code.
func CodeFor(err error) string {
	var pe *PublishingError
	if errors.As(err, &pe) {
		return pe.Code
	}
	switch {
	case errors.Is(err, ErrContentNotFound):
		return ErrCodeContentNotFound
	case errors.Is(err, ErrContentAccessDenied):
		return ErrCodeContentAccessDenied
	case errors.Is(err, ErrVersionConflict):
		return ErrCodeVersionConflict
	case errors.Is(err, ErrInvalidStatusTransition):
		return ErrCodeInvalidTransition
	case errors.Is(err, ErrInvalidSchedule):
		return ErrCodeInvalidSchedule
	case errors.Is(err, ErrNoActiveConnection):
		return ErrCodeNoActiveConnection
	case errors.Is(err, ErrPublishInProgress):
		return ErrCodePublishInProgress
	case errors.Is(err, ErrUnsupportedPlatform):
		return ErrCodeUnsupportedPlatform
	default:
		return ErrCodeInternal
	}
}
