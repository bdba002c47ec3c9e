package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSession = "sess-1"
	testEmail   = "ana@example.com"
	testPhone   = "+15551234567"
)

func startInput() RegisterStartInput {
	return RegisterStartInput{
		FirstName:       "Ana",
		LastName:        "Lima",
		Email:           "  Ana@Example.com ",
		Phone:           "(555) 123-4567",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func requireCode(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "want *goerror.Error, got %T %v", err, err)
	assert.Equal(t, code, gerr.Code())
	if msg != "" {
		assert.Equal(t, msg, gerr.Msg())
	}
}

// registerThroughPhone drives a session to the phone verified state.
func registerThroughPhone(t *testing.T, env *testEnv, sid string) {
	t.Helper()
	ctx := context.Background()

	_, err := env.uc.RegisterStart(ctx, sid, startInput())
	require.NoError(t, err)

	_, err = env.uc.RegisterVerifyEmail(ctx, sid, RegisterVerifyEmailInput{Code: env.db.code(entity.ChannelEmail, testEmail)})
	require.NoError(t, err)

	_, err = env.uc.PhoneSendOTP(ctx, sid, PhoneSendOTPInput{Phone: testPhone})
	require.NoError(t, err)

	_, err = env.uc.PhoneVerifyOTP(ctx, sid, PhoneVerifyOTPInput{Phone: testPhone, Code: env.db.code(entity.ChannelPhone, testPhone)})
	require.NoError(t, err)
}

func TestRegisterStart(t *testing.T) {
	t.Run("Validation order", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := context.Background()

		cases := []struct {
			name   string
			mutate func(in *RegisterStartInput)
			msg    string
		}{
			{"missing field", func(in *RegisterStartInput) { in.LastName = " " }, "All fields are required"},
			{"mismatch before length", func(in *RegisterStartInput) { in.Password, in.ConfirmPassword = "abc", "abd" }, "Passwords do not match"},
			{"short password", func(in *RegisterStartInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters"},
			{"bad email", func(in *RegisterStartInput) { in.Email = "ana@" }, "Invalid email format"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := startInput()
				tc.mutate(&in)

				_, err := env.uc.RegisterStart(ctx, testSession, in)

				requireCode(t, err, goerror.CodeInvalidInput, tc.msg)
			})
		}
		env.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Requires session", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.RegisterStart(context.Background(), "", startInput())

		requireCode(t, err, goerror.CodeUnauthorized, msgSessionRequired)
	})

	t.Run("Email conflict never delivers", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.seedUser(t, entity.User{ID: 7, Email: testEmail, Phone: "+15550000000"}, "secret1", false)

		// Act
		_, err := env.uc.RegisterStart(context.Background(), testSession, startInput())

		// Assert
		requireCode(t, err, goerror.CodeConflict, "Email already registered. Please login instead.")
		env.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		_, err = env.db.GetOTP(context.Background(), entity.ChannelEmail, testEmail)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Phone conflict never delivers", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, entity.User{ID: 7, Email: "other@example.com", Phone: testPhone}, "secret1", false)

		_, err := env.uc.RegisterStart(context.Background(), testSession, startInput())

		requireCode(t, err, goerror.CodeConflict, "Phone already registered. Please login instead.")
		env.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success stores pending registration", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, entity.ChannelEmail, testEmail, mock.AnythingOfType("string")).Return(nil).Once()

		// Act
		out, err := env.uc.RegisterStart(context.Background(), testSession, startInput())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, testEmail, out.Email)
		assert.Equal(t, entity.RegistrationEmailPending, out.State)

		sess, err := env.sessions.Get(context.Background(), testSession)
		require.NoError(t, err)
		require.NotNil(t, sess.PendingRegistration)
		assert.Equal(t, testPhone, sess.PendingRegistration.Phone)
		assert.False(t, sess.PendingRegistration.EmailVerified)

		rec, err := env.db.GetOTP(context.Background(), entity.ChannelEmail, testEmail)
		require.NoError(t, err)
		assert.Len(t, rec.Code, 6)
		assert.Equal(t, env.clock.Now().Add(5*time.Minute), rec.ExpiresAt)
		env.deliverer.AssertExpectations(t)
	})

	t.Run("Delivery failure rolls back the code", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, entity.ChannelEmail, testEmail, mock.Anything).Return(errors.New("smtp down"))

		// Act
		_, err := env.uc.RegisterStart(context.Background(), testSession, startInput())

		// Assert
		requireCode(t, err, goerror.CodeUpstreamDelivery, "Failed to send verification email")
		_, err = env.db.GetOTP(context.Background(), entity.ChannelEmail, testEmail)
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		sess, err := env.sessions.Get(context.Background(), testSession)
		require.NoError(t, err)
		assert.Nil(t, sess.PendingRegistration)
	})
}

func TestRegisterVerifyEmail(t *testing.T) {
	setup := func(t *testing.T) *testEnv {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		_, err := env.uc.RegisterStart(context.Background(), testSession, startInput())
		require.NoError(t, err)
		return env
	}

	t.Run("Code is single use", func(t *testing.T) {
		// Arrange
		env := setup(t)
		code := env.db.code(entity.ChannelEmail, testEmail)

		// Act
		out, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: code})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.RegistrationEmailVerified, out.State)

		outcome, err := env.uc.verifyOTP(context.Background(), entity.ChannelEmail, testEmail, code)
		require.NoError(t, err)
		assert.Equal(t, entity.OTPNotFound, outcome)
	})

	t.Run("Expired after five minutes", func(t *testing.T) {
		env := setup(t)
		code := env.db.code(entity.ChannelEmail, testEmail)
		env.clock.Advance(5*time.Minute + time.Second)

		_, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: code})

		requireCode(t, err, goerror.CodeExpired, "OTP has expired. Please register again.")
		_, err = env.db.GetOTP(context.Background(), entity.ChannelEmail, testEmail)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("Valid at the expiry instant", func(t *testing.T) {
		env := setup(t)
		code := env.db.code(entity.ChannelEmail, testEmail)
		env.clock.Advance(5 * time.Minute)

		_, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: code})

		require.NoError(t, err)
	})

	t.Run("Mismatch keeps pending registration", func(t *testing.T) {
		env := setup(t)
		code := env.db.code(entity.ChannelEmail, testEmail)

		_, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: wrongCode(code)})

		requireCode(t, err, goerror.CodeMismatch, "Invalid OTP. Please try again.")
		sess, _ := env.sessions.Get(context.Background(), testSession)
		require.NotNil(t, sess.PendingRegistration)
		assert.False(t, sess.PendingRegistration.EmailVerified)

		_, err = env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: code})
		require.NoError(t, err)
	})

	t.Run("Resend replaces the code", func(t *testing.T) {
		env := setup(t)
		first := env.db.code(entity.ChannelEmail, testEmail)

		require.NoError(t, env.uc.RegisterResend(context.Background(), testSession))

		second := env.db.code(entity.ChannelEmail, testEmail)
		if first != second {
			_, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: first})
			requireCode(t, err, goerror.CodeMismatch, "")
		}
		_, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: second})
		require.NoError(t, err)

		err = env.uc.RegisterResend(context.Background(), testSession)
		requireCode(t, err, goerror.CodeConflict, "Email already verified")
	})

	t.Run("No pending registration", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.RegisterVerifyEmail(context.Background(), testSession, RegisterVerifyEmailInput{Code: "123456"})

		requireCode(t, err, goerror.CodeNotFound, msgRegistrationExpired)
	})
}

func TestPhoneOTP(t *testing.T) {
	setup := func(t *testing.T) *testEnv {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		ctx := context.Background()
		_, err := env.uc.RegisterStart(ctx, testSession, startInput())
		require.NoError(t, err)
		_, err = env.uc.RegisterVerifyEmail(ctx, testSession, RegisterVerifyEmailInput{Code: env.db.code(entity.ChannelEmail, testEmail)})
		require.NoError(t, err)
		return env
	}

	t.Run("Requires verified email", func(t *testing.T) {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		_, err := env.uc.RegisterStart(context.Background(), testSession, startInput())
		require.NoError(t, err)

		_, err = env.uc.PhoneSendOTP(context.Background(), testSession, PhoneSendOTPInput{Phone: testPhone})

		requireCode(t, err, goerror.CodeNotFound, "Please verify your email first")
	})

	t.Run("Invalid phone", func(t *testing.T) {
		env := setup(t)

		_, err := env.uc.PhoneSendOTP(context.Background(), testSession, PhoneSendOTPInput{Phone: "12ab"})

		requireCode(t, err, goerror.CodeInvalidInput, "Invalid phone number format")
	})

	t.Run("Fourth issuance in window is rate limited", func(t *testing.T) {
		// Arrange
		env := setup(t)
		ctx := context.Background()
		for range 3 {
			_, err := env.uc.PhoneSendOTP(ctx, testSession, PhoneSendOTPInput{Phone: testPhone})
			require.NoError(t, err)
			env.clock.Advance(time.Minute)
		}

		// Act
		_, err := env.uc.PhoneSendOTP(ctx, testSession, PhoneSendOTPInput{Phone: testPhone})

		// Assert
		requireCode(t, err, goerror.CodeTooManyRequest, "Too many OTP requests. Please try again later.")

		env.clock.Advance(3 * time.Minute)
		_, err = env.uc.PhoneSendOTP(ctx, testSession, PhoneSendOTPInput{Phone: testPhone})
		require.NoError(t, err)
	})

	t.Run("Third mismatch locks the code", func(t *testing.T) {
		// Arrange
		env := setup(t)
		ctx := context.Background()
		_, err := env.uc.PhoneSendOTP(ctx, testSession, PhoneSendOTPInput{Phone: testPhone})
		require.NoError(t, err)
		code := env.db.code(entity.ChannelPhone, testPhone)

		// Act
		for range 3 {
			_, err = env.uc.PhoneVerifyOTP(ctx, testSession, PhoneVerifyOTPInput{Phone: testPhone, Code: wrongCode(code)})
			requireCode(t, err, goerror.CodeMismatch, "")
		}
		_, err = env.uc.PhoneVerifyOTP(ctx, testSession, PhoneVerifyOTPInput{Phone: testPhone, Code: code})

		// Assert
		requireCode(t, err, goerror.CodeTooManyAttempts, "Too many failed attempts. Please request a new code.")
	})

	t.Run("Expired phone code", func(t *testing.T) {
		env := setup(t)
		ctx := context.Background()
		_, err := env.uc.PhoneSendOTP(ctx, testSession, PhoneSendOTPInput{Phone: testPhone})
		require.NoError(t, err)
		code := env.db.code(entity.ChannelPhone, testPhone)
		env.clock.Advance(6 * time.Minute)

		_, err = env.uc.PhoneVerifyOTP(ctx, testSession, PhoneVerifyOTPInput{Phone: testPhone, Code: code})

		requireCode(t, err, goerror.CodeExpired, "OTP has expired. Please request a new one.")
	})

	t.Run("Delivery failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, entity.ChannelEmail, mock.Anything, mock.Anything).Return(nil)
		env.deliverer.On("Deliver", mock.Anything, entity.ChannelPhone, mock.Anything, mock.Anything).Return(errors.New("twilio 500"))
		ctx := context.Background()
		_, err := env.uc.RegisterStart(ctx, testSession, startInput())
		require.NoError(t, err)
		_, err = env.uc.RegisterVerifyEmail(ctx, testSession, RegisterVerifyEmailInput{Code: env.db.code(entity.ChannelEmail, testEmail)})
		require.NoError(t, err)

		_, err = env.uc.PhoneSendOTP(ctx, testSession, PhoneSendOTPInput{Phone: testPhone})

		requireCode(t, err, goerror.CodeUpstreamDelivery, "Failed to send OTP")
		_, err = env.db.GetOTP(ctx, entity.ChannelPhone, testPhone)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
		n, err := env.db.CountOTPIssuances(ctx, entity.ChannelPhone, testPhone, time.Time{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRegisterFinalize(t *testing.T) {
	t.Run("Without pending registration", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.RegisterFinalize(context.Background(), testSession, RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"})

		requireCode(t, err, goerror.CodeNotFound, msgRegistrationExpired)
		assert.Empty(t, env.db.users)
	})

	t.Run("Without verified phone", func(t *testing.T) {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		ctx := context.Background()
		_, err := env.uc.RegisterStart(ctx, testSession, startInput())
		require.NoError(t, err)
		_, err = env.uc.RegisterVerifyEmail(ctx, testSession, RegisterVerifyEmailInput{Code: env.db.code(entity.ChannelEmail, testEmail)})
		require.NoError(t, err)

		_, err = env.uc.RegisterFinalize(ctx, testSession, RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"})

		requireCode(t, err, goerror.CodeNotFound, "Please verify your phone number first")
	})

	t.Run("Phone proof can be disabled", func(t *testing.T) {
		env := newTestEnv(t, "    registration:\n      require_phone_proof: false\n")
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		env.publisher.On("PublishMemberRegistered", mock.Anything, mock.Anything).Return(nil)
		ctx := context.Background()
		_, err := env.uc.RegisterStart(ctx, testSession, startInput())
		require.NoError(t, err)
		_, err = env.uc.RegisterVerifyEmail(ctx, testSession, RegisterVerifyEmailInput{Code: env.db.code(entity.ChannelEmail, testEmail)})
		require.NoError(t, err)

		_, err = env.uc.RegisterFinalize(ctx, testSession, RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"})

		require.NoError(t, err)
	})

	t.Run("Password checks", func(t *testing.T) {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		registerThroughPhone(t, env, testSession)
		ctx := context.Background()

		_, err := env.uc.RegisterFinalize(ctx, testSession, RegisterFinalizeInput{Password: "secret1"})
		requireCode(t, err, goerror.CodeInvalidInput, "Confirm Password is required")

		_, err = env.uc.RegisterFinalize(ctx, testSession, RegisterFinalizeInput{Password: "abc", ConfirmPassword: "abc"})
		requireCode(t, err, goerror.CodeInvalidInput, "Password must be at least 6 characters long")
	})

	t.Run("Creates member and enrollment", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		env.publisher.On("PublishMemberRegistered", mock.Anything, mock.MatchedBy(func(ev MemberRegisteredEvent) bool {
			return ev.Email == testEmail && ev.Phone == testPhone && ev.FirstName == "Ana"
		})).Return(nil).Once()
		registerThroughPhone(t, env, testSession)

		// Act
		out, err := env.uc.RegisterFinalize(context.Background(), testSession, RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, out.User.PasswordHash)
		assert.Equal(t, testEmail, out.User.Email)
		assert.NotEmpty(t, out.Enrollment.Secret)
		assert.Contains(t, out.Enrollment.URI, "otpauth://totp/")
		assert.Contains(t, out.Enrollment.QRCodeURI, "data:image/png;base64,")

		stored := env.db.users[out.User.ID]
		assert.True(t, env.password.Verify(stored.PasswordHash, "secret1"))

		secret := env.db.secrets[out.User.ID]
		assert.True(t, secret.Enabled)
		assert.NotContains(t, secret.SealedSecret, out.Enrollment.Secret)
		plain, err := mfa.OpenString(env.encryptor, secret.SealedSecret, totpScope(out.User.ID))
		require.NoError(t, err)
		assert.Equal(t, out.Enrollment.Secret, plain)

		sess, _ := env.sessions.Get(context.Background(), testSession)
		assert.Nil(t, sess.PendingRegistration)
		require.NotNil(t, sess.TOTPSetup)
		assert.Equal(t, out.User.ID, sess.TOTPSetup.UserID)
		assert.Equal(t, entity.RegistrationFinalized, sess.RegistrationState())
		env.publisher.AssertExpectations(t)
	})

	t.Run("Publish failure does not fail registration", func(t *testing.T) {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		env.publisher.On("PublishMemberRegistered", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		registerThroughPhone(t, env, testSession)

		_, err := env.uc.RegisterFinalize(context.Background(), testSession, RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"})

		require.NoError(t, err)
		assert.Len(t, env.db.users, 1)
	})

	t.Run("Lost uniqueness race", func(t *testing.T) {
		env := newTestEnv(t)
		env.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		registerThroughPhone(t, env, testSession)
		env.db.failCreate = &goerror.ConflictError{Constraint: constraintUserPhone}

		_, err := env.uc.RegisterFinalize(context.Background(), testSession, RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"})

		requireCode(t, err, goerror.CodeConflict, "This phone number is already registered. Please login instead.")
		env.publisher.AssertNotCalled(t, "PublishMemberRegistered", mock.Anything, mock.Anything)
		sess, _ := env.sessions.Get(context.Background(), testSession)
		assert.NotNil(t, sess.PendingRegistration)
	})
}

func TestCheckEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, entity.User{ID: 3, Email: testEmail, Phone: testPhone}, "secret1", false)

	t.Run("Taken", func(t *testing.T) {
		out, err := env.uc.CheckEmail(context.Background(), CheckEmailInput{Email: "ANA@example.com"})
		require.NoError(t, err)
		assert.True(t, out.Exists)
		assert.False(t, out.Available)
	})

	t.Run("Available", func(t *testing.T) {
		out, err := env.uc.CheckEmail(context.Background(), CheckEmailInput{Email: "bob@example.com"})
		require.NoError(t, err)
		assert.True(t, out.Available)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := env.uc.CheckEmail(context.Background(), CheckEmailInput{})
		requireCode(t, err, goerror.CodeInvalidInput, "Validation error")
	})
}
