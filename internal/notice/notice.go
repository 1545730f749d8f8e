// Package notice is the single user-visible message an action produces.
package notice

import (
	"errors"

	"dashgate/internal/identity"
	dErrors "dashgate/pkg/domain-errors"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is rendered as a toast or inline text. Code is set for errors only.
type Notice struct {
	Level   Level        `json:"level"`
	Code    dErrors.Code `json:"code,omitempty"`
	Message string       `json:"message"`
}

func Success(msg string) *Notice {
	return &Notice{Level: LevelSuccess, Message: msg}
}

func Error(code dErrors.Code, msg string) *Notice {
	return &Notice{Level: LevelError, Code: code, Message: msg}
}

// FromProvider turns a failed provider call into a notice. Rejections carry
// the provider's message when it sent one; outages always show fallback.
func FromProvider(err error, fallback string, preferLong bool) *Notice {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && apiErr.Unavailable() {
		return Error(dErrors.CodeProviderUnavailable, fallback)
	}
	return Error(dErrors.CodeProviderRejected, identity.Message(err, fallback, preferLong))
}

// Generic is FromProvider without passing the provider's text through.
func Generic(err error, fallback string) *Notice {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && apiErr.Unavailable() {
		return Error(dErrors.CodeProviderUnavailable, fallback)
	}
	return Error(dErrors.CodeProviderRejected, fallback)
}

// IsError is nil-safe.
func (n *Notice) IsError() bool {
	return n != nil && n.Level == LevelError
}
