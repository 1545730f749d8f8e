package models

import (
	"dashgate/internal/identity"
	"dashgate/internal/notice"
	id "dashgate/pkg/domain"
	"dashgate/pkg/validation"
)

// Flow names which auth flow an outcome belongs to.
type Flow string

const (
	FlowSignUp    Flow = "sign_up"
	FlowSignIn    Flow = "sign_in"
	FlowReset     Flow = "reset_password"
	FlowFederated Flow = "federated"
)

// Step is the state a flow is in after an action.
type Step string

const (
	StepForm      Step = "form"
	StepVerifying Step = "verifying"
	// StepDone is terminal: the outcome carries a redirect.
	StepDone Step = "done"

	StepAwaitingEmail           Step = "awaiting-email"
	StepAwaitingCodeAndPassword Step = "awaiting-code-and-password"
)

// Outcome is the view state an auth action leaves behind.
type Outcome struct {
	Flow        Flow                   `json:"flow"`
	Step        Step                   `json:"step,omitempty"`
	Email       string                 `json:"email,omitempty"`
	Notice      *notice.Notice         `json:"notice,omitempty"`
	FieldErrors validation.FieldErrors `json:"field_errors,omitempty"`
	Redirect    string                 `json:"redirect,omitempty"`
	// Session must be bound to the browser before following Redirect.
	Session *identity.SessionToken `json:"-"`
}

// SignupDraft links a browser's flow to the provider sign-up attempt awaiting
// email verification. It never holds the password.
type SignupDraft struct {
	Email     string       `json:"email"`
	AttemptID id.AttemptID `json:"attempt_id"`
}

// ResetState is the password reset state machine. Email and AttemptID are set
// only in StepAwaitingCodeAndPassword; use the constructors.
type ResetState struct {
	Step      Step         `json:"step"`
	Email     string       `json:"email,omitempty"`
	AttemptID id.AttemptID `json:"attempt_id,omitempty"`
}

func AwaitingEmail() ResetState {
	return ResetState{Step: StepAwaitingEmail}
}

func AwaitingCodeAndPassword(email string, attemptID id.AttemptID) ResetState {
	return ResetState{Step: StepAwaitingCodeAndPassword, Email: email, AttemptID: attemptID}
}

// Valid rejects combinations the constructors cannot produce.
func (s ResetState) Valid() bool {
	switch s.Step {
	case StepAwaitingEmail:
		return s.Email == "" && s.AttemptID.IsNil()
	case StepAwaitingCodeAndPassword:
		return s.Email != "" && !s.AttemptID.IsNil()
	default:
		return false
	}
}
