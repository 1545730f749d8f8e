package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/requestcontext"
)

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	FieldErrors      map[string]string `json:"field_errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:            DomainCodeToHTTPCode(domainErr.Code),
			ErrorDescription: domainErr.Message,
			FieldErrors:      domainErr.Fields,
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeIncompleteFlow:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeProviderRejected, dErrors.CodeUnsupported:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConfirmationRequired:
		return http.StatusPreconditionRequired
	case dErrors.CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" string in responses.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeProviderRejected:
		return "provider_rejected"
	case dErrors.CodeProviderUnavailable:
		return "provider_unavailable"
	case dErrors.CodeIncompleteFlow:
		return "incomplete_flow"
	case dErrors.CodeUnsupported:
		return "unsupported"
	case dErrors.CodeConfirmationRequired:
		return "confirmation_required"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}

// RequireSession extracts the verified caller from context.
// Handlers behind the session middleware should never see it missing.
func RequireSession(ctx context.Context, logger *slog.Logger) (requestcontext.Session, error) {
	sess, ok := requestcontext.SessionFrom(ctx)
	if !ok {
		if logger != nil {
			logger.ErrorContext(ctx, "session missing from context despite auth middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return requestcontext.Session{}, dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	return sess, nil
}
