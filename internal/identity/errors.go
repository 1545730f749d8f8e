package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorDetail is one entry of the provider's error list.
type ErrorDetail struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	LongMessage string `json:"long_message"`
	Meta        struct {
		ParamName string `json:"param_name,omitempty"`
	} `json:"meta"`
}

// APIError is returned for every provider call that did not succeed, including
// transport failures (Status 0) and calls refused by the local breaker.
type APIError struct {
	Status  int
	Errors  []ErrorDetail
	TraceID string
	Err     error
}

// Codes synthesized locally when the provider never answered.
const (
	CodeUnavailable = "provider_unavailable"
	CodeTimeout     = "provider_timeout"
	CodeBadResponse = "provider_bad_response"
)

func (e *APIError) Error() string {
	if d, ok := e.first(); ok {
		if e.Status != 0 {
			return fmt.Sprintf("identity provider %d %s: %s", e.Status, d.Code, d.Message)
		}
		return fmt.Sprintf("identity provider %s: %s", d.Code, d.Message)
	}
	if e.Err != nil {
		return "identity provider: " + e.Err.Error()
	}
	return fmt.Sprintf("identity provider status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) first() (ErrorDetail, bool) {
	if len(e.Errors) == 0 {
		return ErrorDetail{}, false
	}
	return e.Errors[0], true
}

// Code is the first error code, or "" when none was reported.
func (e *APIError) Code() string {
	d, _ := e.first()
	return d.Code
}

// Unavailable reports failures where the provider did not decide anything:
// transport errors, timeouts, 5xx, and breaker rejections.
func (e *APIError) Unavailable() bool {
	switch e.Code() {
	case CodeUnavailable, CodeTimeout, CodeBadResponse:
		return true
	}
	return e.Status >= http.StatusInternalServerError
}

// Message extracts the user-facing text from a provider error: the first
// reported error's message (or long message when preferLong), else fallback.
// Non-provider errors and unavailability always yield fallback.
func Message(err error, fallback string, preferLong bool) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Unavailable() {
		return fallback
	}
	d, ok := apiErr.first()
	if !ok {
		return fallback
	}
	if preferLong && d.LongMessage != "" {
		return d.LongMessage
	}
	if d.Message != "" {
		return d.Message
	}
	if d.LongMessage != "" {
		return d.LongMessage
	}
	return fallback
}

// NewUnavailable builds the error for a call that never reached a decision.
func NewUnavailable(code string, cause error) *APIError {
	return &APIError{
		Errors: []ErrorDetail{{Code: code, Message: "identity provider unavailable"}},
		Err:    cause,
	}
}
