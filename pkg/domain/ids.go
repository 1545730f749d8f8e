// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"regexp"

	"github.com/google/uuid"

	dErrors "dashgate/pkg/domain-errors"
)

// Provider-issued identifiers are opaque strings ("user_2a...", "sess_2b...").
// Distinct types keep a SessionID from being passed where a PrincipalID is expected.
type (
	PrincipalID string
	SessionID   string
	AttemptID   string
)

// FlowID keys a browser's in-progress auth flow in the flow store.
type FlowID uuid.UUID

// providerIDPattern bounds what is accepted from path params and cookies
// before it is interpolated into provider URLs.
var providerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Parse functions - use at trust boundaries (handlers, cookies, path params).

func ParsePrincipalID(s string) (PrincipalID, error) {
	if err := checkProviderID(s, "principal ID"); err != nil {
		return "", err
	}
	return PrincipalID(s), nil
}

func ParseSessionID(s string) (SessionID, error) {
	if err := checkProviderID(s, "session ID"); err != nil {
		return "", err
	}
	return SessionID(s), nil
}

func ParseAttemptID(s string) (AttemptID, error) {
	if err := checkProviderID(s, "attempt ID"); err != nil {
		return "", err
	}
	return AttemptID(s), nil
}

func ParseFlowID(s string) (FlowID, error) {
	if s == "" {
		return FlowID(uuid.Nil), dErrors.New(dErrors.CodeBadRequest, "flow ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return FlowID(uuid.Nil), dErrors.New(dErrors.CodeBadRequest, "invalid flow ID")
	}
	return FlowID(id), nil
}

// NewFlowID mints a fresh flow key for a browser without one.
func NewFlowID() FlowID { return FlowID(uuid.New()) }

func (id PrincipalID) String() string { return string(id) }
func (id SessionID) String() string   { return string(id) }
func (id AttemptID) String() string   { return string(id) }
func (id FlowID) String() string      { return uuid.UUID(id).String() }

func (id PrincipalID) IsNil() bool { return id == "" }
func (id SessionID) IsNil() bool   { return id == "" }
func (id AttemptID) IsNil() bool   { return id == "" }
func (id FlowID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

func checkProviderID(s, label string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeBadRequest, label+" cannot be empty")
	}
	if !providerIDPattern.MatchString(s) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid "+label)
	}
	return nil
}
