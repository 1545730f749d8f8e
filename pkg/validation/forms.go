package validation

import (
	"strings"

	str "dashgate/pkg/string"
)

// LoginForm is the sign-in submission. The provider enforces the real
// password policy; only presence is checked here.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

func (f *LoginForm) Sanitize() { str.TrimStrings(&f.Email) }

// Validate runs the login rules.
func (f *LoginForm) Validate() error { return Validate(f) }

func (f *LoginForm) ValidationMessages() map[string]string {
	return map[string]string{"email.required": "Invalid email address"}
}

// Clear drops the secret once the submission has been used.
func (f *LoginForm) Clear() { f.Password = "" }

// RegistrationForm is the sign-up submission.
type RegistrationForm struct {
	FirstName string `json:"first_name" validate:"min=2,max=50" label:"First Name"`
	LastName  string `json:"last_name" validate:"min=2,max=50" label:"Last Name"`
	Email     string `json:"email" validate:"required,email" label:"Email"`
	Password  string `json:"password" validate:"min=8,has_upper,has_lower,has_digit" label:"Password"`
}

func (f *RegistrationForm) Sanitize() { str.TrimStrings(&f.FirstName, &f.LastName, &f.Email) }

// Normalize lower-cases the email before validation and dispatch.
func (f *RegistrationForm) Normalize() { f.Email = strings.ToLower(f.Email) }

func (f *RegistrationForm) Validate() error { return Validate(f) }

func (f *RegistrationForm) ValidationMessages() map[string]string {
	return map[string]string{"email.required": "Invalid email address"}
}

func (f *RegistrationForm) Clear() { f.Password = "" }

// VerificationForm carries the emailed one-time code.
type VerificationForm struct {
	Code string `json:"code" validate:"len=6" label:"Verification code"`
}

func (f *VerificationForm) Sanitize() { str.TrimStrings(&f.Code) }

func (f *VerificationForm) Validate() error { return Validate(f) }

func (f *VerificationForm) ValidationMessages() map[string]string {
	return map[string]string{"code.len": "Verification code must be 6 digits"}
}

func (f *VerificationForm) Clear() { f.Code = "" }

// ResetEmailForm is the first step of the password reset.
type ResetEmailForm struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
}

func (f *ResetEmailForm) Sanitize() { str.TrimStrings(&f.Email) }

func (f *ResetEmailForm) Validate() error { return Validate(f) }

func (f *ResetEmailForm) ValidationMessages() map[string]string {
	return map[string]string{
		"email.required": "Enter a valid email",
		"email.email":    "Enter a valid email",
	}
}

// ResetPasswordForm is the second step: the emailed code plus the new secret.
// Password policy is left to the provider, which reports violations itself.
type ResetPasswordForm struct {
	Code     string `json:"code" validate:"notblank" label:"Verification code"`
	Password string `json:"password" validate:"notblank" label:"Password"`
}

func (f *ResetPasswordForm) Sanitize() { str.TrimStrings(&f.Code) }

func (f *ResetPasswordForm) Validate() error { return Validate(f) }

func (f *ResetPasswordForm) Clear() {
	f.Code = ""
	f.Password = ""
}

// ProfileForm carries the editable name fields. Email is not editable here.
type ProfileForm struct {
	FirstName string `json:"first_name" validate:"min=2,max=50" label:"First Name"`
	LastName  string `json:"last_name" validate:"min=2,max=50" label:"Last Name"`
}

func (f *ProfileForm) Sanitize() { str.TrimStrings(&f.FirstName, &f.LastName) }

func (f *ProfileForm) Validate() error { return Validate(f) }

// PasswordChangeForm is checked locally by the account manager (empty fields,
// mismatch) so it carries no struct rules.
type PasswordChangeForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (f *PasswordChangeForm) Clear() {
	f.CurrentPassword = ""
	f.NewPassword = ""
	f.ConfirmPassword = ""
}

// DeleteAccountForm must carry an explicit confirmation.
type DeleteAccountForm struct {
	Confirm bool `json:"confirm"`
}
