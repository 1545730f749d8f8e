package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"dashgate/internal/account/models"
	"dashgate/internal/identity"
	"dashgate/internal/notice"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/requestcontext"
	"dashgate/pkg/validation"
)

const (
	msgProfileUpdated     = "Profile updated successfully"
	msgProfileFailed      = "Failed to update profile"
	msgImageUpdated       = "Profile image updated"
	msgImageFailed        = "Failed to update image"
	msgImageRequired      = "Please choose an image file."
	msgImageTooLarge      = "Image must be 5 MB or smaller."
	msgPasswordFieldsMiss = "Please fill in all password fields."
	msgPasswordMismatch   = "New passwords do not match."
	msgPasswordUpdated    = "Password updated successfully"
	msgPasswordFailed     = "Failed to update password"
	msgConfirmDeletion    = "Please confirm that you want to permanently delete your account."
	msgAccountDeleted     = "Account deleted. Logging out..."
	msgDeleteFailed       = "Failed to delete account"
)

const previewKeyPrefix = "avatar:preview:"

// Profile reads the caller's principal fresh from the provider.
func (s *Service) Profile(ctx context.Context, caller requestcontext.Session) (*models.Profile, error) {
	principal, err := s.client.GetPrincipal(ctx, caller.PrincipalID)
	if err != nil {
		s.logProviderFailure(ctx, "get_principal", err)
		return nil, providerError(err, "failed to load profile")
	}
	return s.withPreview(ctx, models.ProfileFrom(principal)), nil
}

// UpdateProfile changes the caller's name. Provider messages are not surfaced.
func (s *Service) UpdateProfile(ctx context.Context, caller requestcontext.Session, form *validation.ProfileForm) (models.Outcome, error) {
	form.Sanitize()
	if err := form.Validate(); err != nil {
		s.count("update_profile", "invalid")
		return invalid(err), nil
	}

	release, err := s.acquire(ctx, "update_profile", caller)
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	principal, err := s.client.UpdateProfile(ctx, caller.PrincipalID, identity.ProfileUpdate{
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		s.logProviderFailure(ctx, "update_profile", err)
		s.count("update_profile", "failure")
		return models.Outcome{Notice: notice.Generic(err, msgProfileFailed)}, nil
	}

	s.count("update_profile", "success")
	s.auditEvent(ctx, audit.EventProfileUpdated, caller, "")
	return models.Outcome{
		Notice:  notice.Success(msgProfileUpdated),
		Profile: s.withPreview(ctx, models.ProfileFrom(principal)),
	}, nil
}

// UpdateAvatar uploads a new profile image. The image is held as a local
// preview while the provider call runs; the preview is dropped again if the
// provider refuses it.
func (s *Service) UpdateAvatar(ctx context.Context, caller requestcontext.Session, img identity.Image) (models.Outcome, error) {
	if len(img.Data) == 0 {
		s.count("update_avatar", "invalid")
		return invalidField("file", msgImageRequired), nil
	}
	if len(img.Data) > MaxAvatarBytes {
		s.count("update_avatar", "invalid")
		return invalidField("file", msgImageTooLarge), nil
	}
	img.ContentType = contentTypeOf(img)
	if !strings.HasPrefix(img.ContentType, "image/") {
		s.count("update_avatar", "invalid")
		return invalidField("file", msgImageRequired), nil
	}

	release, err := s.acquire(ctx, "update_avatar", caller)
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	if err := s.savePreview(ctx, caller.PrincipalID, img); err != nil {
		// The preview is cosmetic; the upload proceeds without it.
		s.logger.WarnContext(ctx, "failed to store avatar preview", "error", err)
	}

	principal, err := s.client.SetProfileImage(ctx, caller.PrincipalID, img)
	if err != nil {
		s.logProviderFailure(ctx, "set_profile_image", err)
		s.count("update_avatar", "failure")
		s.dropPreview(ctx, caller.PrincipalID)
		return models.Outcome{Notice: notice.Generic(err, msgImageFailed)}, nil
	}

	s.count("update_avatar", "success")
	s.auditEvent(ctx, audit.EventAvatarUpdated, caller, "")
	return models.Outcome{
		Notice:  notice.Success(msgImageUpdated),
		Profile: s.withPreview(ctx, models.ProfileFrom(principal)),
	}, nil
}

// GetPreview returns the caller's locally held avatar preview.
func (s *Service) GetPreview(ctx context.Context, caller requestcontext.Session) (models.Preview, error) {
	raw, err := s.kv.Get(ctx, previewKeyPrefix+caller.PrincipalID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Preview{}, dErrors.New(dErrors.CodeNotFound, "no avatar preview")
	}
	if err != nil {
		return models.Preview{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load avatar preview")
	}
	var preview models.Preview
	if err := json.Unmarshal(raw, &preview); err != nil {
		return models.Preview{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode avatar preview")
	}
	return preview, nil
}

// UpdatePassword changes the caller's password. Empty fields and a mismatched
// confirmation are rejected before the provider is called. The form's secrets
// are cleared on every path.
func (s *Service) UpdatePassword(ctx context.Context, caller requestcontext.Session, form *validation.PasswordChangeForm) (models.Outcome, error) {
	defer form.Clear()

	if form.CurrentPassword == "" || form.NewPassword == "" || form.ConfirmPassword == "" {
		s.count("update_password", "invalid")
		return models.Outcome{Notice: notice.Error(dErrors.CodeValidation, msgPasswordFieldsMiss)}, nil
	}
	if form.NewPassword != form.ConfirmPassword {
		s.count("update_password", "invalid")
		return models.Outcome{
			Notice:      notice.Error(dErrors.CodeValidation, msgPasswordMismatch),
			FieldErrors: map[string]string{"confirm_password": msgPasswordMismatch},
		}, nil
	}

	release, err := s.acquire(ctx, "update_password", caller)
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	if err := s.client.UpdatePassword(ctx, caller.PrincipalID, form.CurrentPassword, form.NewPassword); err != nil {
		s.logProviderFailure(ctx, "update_password", err)
		s.count("update_password", "failure")
		return models.Outcome{Notice: notice.FromProvider(err, msgPasswordFailed, false)}, nil
	}

	s.count("update_password", "success")
	s.auditEvent(ctx, audit.EventPasswordChanged, caller, "")
	return models.Outcome{Notice: notice.Success(msgPasswordUpdated)}, nil
}

// DeleteAccount permanently removes the caller's account once confirmed. On
// success the caller is signed out and sent home with a full page load.
func (s *Service) DeleteAccount(ctx context.Context, caller requestcontext.Session, form *validation.DeleteAccountForm) (models.Outcome, error) {
	if form == nil || !form.Confirm {
		return models.Outcome{Notice: notice.Error(dErrors.CodeConfirmationRequired, msgConfirmDeletion)}, nil
	}

	release, err := s.acquire(ctx, "delete_account", caller)
	if err != nil {
		return models.Outcome{}, err
	}
	defer release()

	if err := s.client.DeleteAccount(ctx, caller.PrincipalID); err != nil {
		s.logProviderFailure(ctx, "delete_account", err)
		s.count("delete_account", "failure")
		return models.Outcome{Notice: notice.Generic(err, msgDeleteFailed)}, nil
	}

	s.revokeLocally(ctx, caller.SessionID)
	s.dropPreview(ctx, caller.PrincipalID)
	s.count("delete_account", "success")
	s.auditEvent(ctx, audit.EventAccountDeleted, caller, "")
	return models.Outcome{
		Notice:       notice.Success(msgAccountDeleted),
		Redirect:     s.home,
		HardRedirect: true,
		SignedOut:    true,
	}, nil
}

func (s *Service) savePreview(ctx context.Context, principalID id.PrincipalID, img identity.Image) error {
	raw, err := json.Marshal(models.Preview{ContentType: img.ContentType, Data: img.Data})
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, previewKeyPrefix+principalID.String(), raw, s.previewTTL)
}

func (s *Service) dropPreview(ctx context.Context, principalID id.PrincipalID) {
	if err := s.kv.Delete(ctx, previewKeyPrefix+principalID.String()); err != nil {
		s.logger.WarnContext(ctx, "failed to drop avatar preview", "error", err)
	}
}

func (s *Service) withPreview(ctx context.Context, p *models.Profile) *models.Profile {
	if _, err := s.kv.Get(ctx, previewKeyPrefix+p.ID.String()); err == nil {
		p.PreviewURL = PreviewPath
	}
	return p
}

// contentTypeOf trusts the declared type only when it is specific; otherwise
// the bytes are sniffed.
func contentTypeOf(img identity.Image) string {
	declared, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(img.ContentType)), ";")
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(img.Data)
}

func invalid(err error) models.Outcome {
	msg := err.Error()
	var de *dErrors.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	return models.Outcome{
		Notice:      notice.Error(dErrors.CodeValidation, msg),
		FieldErrors: dErrors.FieldsOf(err),
	}
}

func invalidField(field, msg string) models.Outcome {
	return models.Outcome{
		Notice:      notice.Error(dErrors.CodeValidation, msg),
		FieldErrors: map[string]string{field: msg},
	}
}
