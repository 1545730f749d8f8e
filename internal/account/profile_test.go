package account

import (
	"bytes"
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dashgate/internal/identity"
	"dashgate/internal/notice"
	"dashgate/internal/platform/pending"
	"dashgate/internal/sentinel"
	id "dashgate/pkg/domain"
	dErrors "dashgate/pkg/domain-errors"
	"dashgate/pkg/platform/audit"
	"dashgate/pkg/testutil"
	"dashgate/pkg/validation"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type ProfileSuite struct {
	accountSuite
}

func TestProfileSuite(t *testing.T) {
	suite.Run(t, new(ProfileSuite))
}

func (s *ProfileSuite) TestProfile() {
	s.client.EXPECT().GetPrincipal(gomock.Any(), s.caller.PrincipalID).
		Return(testutil.NewPrincipalBuilder().WithImageURL("https://img.example/jo.png").Build(), nil)

	profile, err := s.service.Profile(s.ctx, s.caller)
	s.Require().NoError(err)
	s.Equal("Jo Do", profile.DisplayName)
	s.Equal("jo@x.com", profile.Email)
	s.Equal("https://img.example/jo.png", profile.ImageURL)
	s.Empty(profile.PreviewURL)
}

func (s *ProfileSuite) TestUpdateProfile() {
	s.Run("Given valid names When updated Then success notice and fresh profile", func() {
		s.client.EXPECT().UpdateProfile(gomock.Any(), s.caller.PrincipalID, identity.ProfileUpdate{FirstName: "Joanna", LastName: "Doe"}).
			Return(testutil.NewPrincipalBuilder().WithName("Joanna", "Doe").Build(), nil)

		out, err := s.service.UpdateProfile(s.ctx, s.caller, &validation.ProfileForm{FirstName: " Joanna ", LastName: "Doe"})
		s.Require().NoError(err)
		s.Equal(notice.LevelSuccess, out.Notice.Level)
		s.Equal("Profile updated successfully", out.Notice.Message)
		s.Equal("Joanna Doe", out.Profile.DisplayName)
		s.Contains(s.auditActions(), string(audit.EventProfileUpdated))
	})

	s.Run("Given a one letter name When updated Then validation and no provider call", func() {
		out, err := s.service.UpdateProfile(s.ctx, s.caller, &validation.ProfileForm{FirstName: "J", LastName: "Doe"})
		s.Require().NoError(err)
		s.Equal(dErrors.CodeValidation, out.Notice.Code)
		s.Equal("First Name must be at least 2 characters", out.FieldErrors["first_name"])
	})

	s.Run("Given the provider rejects When updated Then the generic failure is shown", func() {
		s.client.EXPECT().UpdateProfile(gomock.Any(), s.caller.PrincipalID, gomock.Any()).
			Return(identity.Principal{}, rejection("first_name is not allowed"))

		out, err := s.service.UpdateProfile(s.ctx, s.caller, &validation.ProfileForm{FirstName: "Joanna", LastName: "Doe"})
		s.Require().NoError(err)
		s.Equal("Failed to update profile", out.Notice.Message)
		s.Nil(out.Profile)
	})
}

func (s *ProfileSuite) TestUpdateAvatar() {
	s.Run("Given a png When uploaded Then the preview is served and the profile updated", func() {
		s.client.EXPECT().SetProfileImage(gomock.Any(), s.caller.PrincipalID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.PrincipalID, img identity.Image) (identity.Principal, error) {
				s.Equal("image/png", img.ContentType)
				preview, err := s.service.GetPreview(s.ctx, s.caller)
				s.Require().NoError(err, "preview is visible while the upload is in flight")
				s.True(bytes.Equal(pngHeader, preview.Data))
				return testutil.NewPrincipalBuilder().WithImageURL("https://img.example/new.png").Build(), nil
			})

		out, err := s.service.UpdateAvatar(s.ctx, s.caller, identity.Image{Filename: "me.png", Data: pngHeader})
		s.Require().NoError(err)
		s.Equal("Profile image updated", out.Notice.Message)
		s.Equal("https://img.example/new.png", out.Profile.ImageURL)
		s.Equal(PreviewPath, out.Profile.PreviewURL)
	})

	s.Run("Given the provider fails When uploaded Then the preview is rolled back", func() {
		caller := s.caller
		caller.PrincipalID = testutil.TestIDs.PrincipalID2
		s.client.EXPECT().SetProfileImage(gomock.Any(), caller.PrincipalID, gomock.Any()).
			Return(identity.Principal{}, outage())

		out, err := s.service.UpdateAvatar(s.ctx, caller, identity.Image{Filename: "me.png", ContentType: "image/png", Data: pngHeader})
		s.Require().NoError(err)
		s.Equal(dErrors.CodeProviderUnavailable, out.Notice.Code)
		s.Equal("Failed to update image", out.Notice.Message)

		_, err = s.service.GetPreview(s.ctx, caller)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("Given a text file When uploaded Then it is refused locally", func() {
		out, err := s.service.UpdateAvatar(s.ctx, s.caller, identity.Image{Filename: "notes.txt", Data: []byte("hello")})
		s.Require().NoError(err)
		s.Equal(dErrors.CodeValidation, out.Notice.Code)
		s.Contains(out.FieldErrors, "file")
	})

	s.Run("Given an oversized image When uploaded Then it is refused locally", func() {
		data := append(bytes.Clone(pngHeader), make([]byte, MaxAvatarBytes)...)
		out, err := s.service.UpdateAvatar(s.ctx, s.caller, identity.Image{ContentType: "image/png", Data: data})
		s.Require().NoError(err)
		s.Equal("Image must be 5 MB or smaller.", out.Notice.Message)
	})
}

func (s *ProfileSuite) TestUpdatePassword() {
	s.Run("Given an empty field When submitted Then no provider call", func() {
		form := &validation.PasswordChangeForm{CurrentPassword: "old", NewPassword: "Newpass12"}
		out, err := s.service.UpdatePassword(s.ctx, s.caller, form)
		s.Require().NoError(err)
		s.Equal("Please fill in all password fields.", out.Notice.Message)
		s.Empty(form.CurrentPassword)
	})

	s.Run("Given a mismatch When submitted Then no provider call", func() {
		out, err := s.service.UpdatePassword(s.ctx, s.caller, &validation.PasswordChangeForm{
			CurrentPassword: "old", NewPassword: "Newpass12", ConfirmPassword: "Newpass13",
		})
		s.Require().NoError(err)
		s.Equal("New passwords do not match.", out.Notice.Message)
	})

	s.Run("Given matching passwords When accepted Then success and fields cleared", func() {
		s.client.EXPECT().UpdatePassword(gomock.Any(), s.caller.PrincipalID, "old", "Newpass12").Return(nil)

		form := &validation.PasswordChangeForm{CurrentPassword: "old", NewPassword: "Newpass12", ConfirmPassword: "Newpass12"}
		out, err := s.service.UpdatePassword(s.ctx, s.caller, form)
		s.Require().NoError(err)
		s.Equal("Password updated successfully", out.Notice.Message)
		s.Equal(validation.PasswordChangeForm{}, *form)
		s.Contains(s.auditActions(), string(audit.EventPasswordChanged))
	})

	s.Run("Given a wrong current password When submitted Then the provider message is shown", func() {
		s.client.EXPECT().UpdatePassword(gomock.Any(), s.caller.PrincipalID, "bad", "Newpass12").
			Return(rejection("Password is incorrect. Try again, or use another method."))

		out, err := s.service.UpdatePassword(s.ctx, s.caller, &validation.PasswordChangeForm{
			CurrentPassword: "bad", NewPassword: "Newpass12", ConfirmPassword: "Newpass12",
		})
		s.Require().NoError(err)
		s.Equal("Password is incorrect. Try again, or use another method.", out.Notice.Message)
	})

	s.Run("Given the provider is down When submitted Then the fallback is shown", func() {
		s.client.EXPECT().UpdatePassword(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(outage())

		out, err := s.service.UpdatePassword(s.ctx, s.caller, &validation.PasswordChangeForm{
			CurrentPassword: "old", NewPassword: "Newpass12", ConfirmPassword: "Newpass12",
		})
		s.Require().NoError(err)
		s.Equal("Failed to update password", out.Notice.Message)
	})
}

func (s *ProfileSuite) TestDeleteAccount() {
	s.Run("Given no confirmation When deleting Then confirmation is required", func() {
		out, err := s.service.DeleteAccount(s.ctx, s.caller, &validation.DeleteAccountForm{})
		s.Require().NoError(err)
		s.Equal(dErrors.CodeConfirmationRequired, out.Notice.Code)
		s.False(out.SignedOut)
	})

	s.Run("Given the provider fails When deleting Then the account is intact", func() {
		s.client.EXPECT().DeleteAccount(gomock.Any(), s.caller.PrincipalID).Return(outage())

		out, err := s.service.DeleteAccount(s.ctx, s.caller, &validation.DeleteAccountForm{Confirm: true})
		s.Require().NoError(err)
		s.Equal("Failed to delete account", out.Notice.Message)
		s.Empty(out.Redirect)
		s.False(out.SignedOut)
	})

	s.Run("Given confirmation When deleting Then signed out with a hard redirect home", func() {
		s.client.EXPECT().DeleteAccount(gomock.Any(), s.caller.PrincipalID).Return(nil)

		out, err := s.service.DeleteAccount(s.ctx, s.caller, &validation.DeleteAccountForm{Confirm: true})
		s.Require().NoError(err)
		s.Equal("Account deleted. Logging out...", out.Notice.Message)
		s.Equal("/", out.Redirect)
		s.True(out.HardRedirect)
		s.True(out.SignedOut)

		revoked, err := s.revocations.IsSessionRevoked(s.ctx, s.caller.SessionID)
		s.Require().NoError(err)
		s.True(revoked)
		s.Equal(1.0, promtestutil.ToFloat64(s.metrics.AccountOperations.WithLabelValues("delete_account", "success")))
	})
}

func (s *ProfileSuite) TestConcurrentOperationsDoNotBlockEachOther() {
	tracker := pending.New(s.kv)
	release, err := tracker.Acquire(s.ctx, pending.AccountKey("update_password", s.caller.PrincipalID))
	s.Require().NoError(err)
	defer release()

	s.client.EXPECT().UpdateProfile(gomock.Any(), gomock.Any(), gomock.Any()).Return(testutil.NewPrincipalBuilder().Build(), nil)
	_, err = s.service.UpdateProfile(s.ctx, s.caller, &validation.ProfileForm{FirstName: "Jo", LastName: "Do"})
	s.Require().NoError(err)

	_, err = s.service.UpdatePassword(s.ctx, s.caller, &validation.PasswordChangeForm{
		CurrentPassword: "old", NewPassword: "Newpass12", ConfirmPassword: "Newpass12",
	})
	s.ErrorIs(err, sentinel.ErrInFlight)
}
