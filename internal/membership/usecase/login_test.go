package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var member = entity.User{ID: 42, FirstName: "Ana", LastName: "Lima", Email: testEmail, Phone: testPhone}

func TestLogin(t *testing.T) {
	t.Run("Required fields", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: " "})

		requireCode(t, err, goerror.CodeInvalidInput, "All fields are required")
	})

	t.Run("Unknown member and wrong password look the same", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", false)

		_, errUnknown := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: "bob@example.com", Password: "secret1"})
		_, errWrong := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: testEmail, Password: "nope12"})

		requireCode(t, errUnknown, goerror.CodeUnauthorized, msgInvalidCredentials)
		requireCode(t, errWrong, goerror.CodeUnauthorized, msgInvalidCredentials)
	})

	t.Run("Without authenticator", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", false)

		// Act
		out, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: " ANA@example.com", Password: "secret1"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.AuthSessionEstablished, out.Result)
		assert.Equal(t, member.ID, out.UserID)

		clm, err := env.jwt.Verify(out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, member.ID, clm.MemberID)

		status, err := env.uc.SessionStatus(context.Background(), testSession)
		require.NoError(t, err)
		assert.True(t, status.Authenticated)
		assert.Equal(t, member.ID, status.AuthenticatedUserID)
	})

	t.Run("By phone", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", false)

		out, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: "1-555-123-4567", Password: "secret1"})

		require.NoError(t, err)
		assert.Equal(t, member.ID, out.UserID)
	})

	t.Run("With authenticator requires second factor", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", true)

		// Act
		out, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: testEmail, Password: "secret1"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.AuthSecondFactorRequired, out.Result)
		assert.Empty(t, out.AccessToken)

		sess, _ := env.sessions.Get(context.Background(), testSession)
		require.NotNil(t, sess.PendingLogin)
		assert.Equal(t, member.ID, sess.PendingLogin.UserID)
		assert.Nil(t, sess.AuthenticatedUserID)
	})
}

func TestLogin2FA(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, string) {
		env := newTestEnv(t)
		secret := env.seedUser(t, member, "secret1", true)
		_, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: testEmail, Password: "secret1"})
		require.NoError(t, err)
		return env, secret
	}

	t.Run("Current code establishes session", func(t *testing.T) {
		// Arrange
		env, secret := setup(t)
		code, err := env.totp.GenerateCode(secret, env.clock.Now())
		require.NoError(t, err)

		// Act
		out, err := env.uc.Login2FA(context.Background(), testSession, Login2FAInput{Code: code})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.AuthSessionEstablished, out.Result)
		assert.NotEmpty(t, out.AccessToken)

		sess, _ := env.sessions.Get(context.Background(), testSession)
		assert.Nil(t, sess.PendingLogin)
		require.NotNil(t, sess.AuthenticatedUserID)
		assert.Equal(t, member.ID, *sess.AuthenticatedUserID)
	})

	t.Run("Stale code keeps pending login", func(t *testing.T) {
		env, secret := setup(t)
		code, err := env.totp.GenerateCode(secret, env.clock.Now().Add(-5*time.Minute))
		require.NoError(t, err)
		current, err := env.totp.GenerateCode(secret, env.clock.Now())
		require.NoError(t, err)
		if code == current {
			t.Skip("stale code collides with the current one")
		}

		_, err = env.uc.Login2FA(context.Background(), testSession, Login2FAInput{Code: code})

		requireCode(t, err, goerror.CodeUnauthorized, "Invalid or expired code")
		sess, _ := env.sessions.Get(context.Background(), testSession)
		assert.NotNil(t, sess.PendingLogin)
		assert.Nil(t, sess.AuthenticatedUserID)
	})

	t.Run("Malformed code", func(t *testing.T) {
		env, _ := setup(t)

		_, err := env.uc.Login2FA(context.Background(), testSession, Login2FAInput{Code: "12ab"})

		requireCode(t, err, goerror.CodeInvalidInput, "")
	})

	t.Run("Without pending login", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.Login2FA(context.Background(), testSession, Login2FAInput{Code: "123456"})

		requireCode(t, err, goerror.CodeNotFound, "No pending login. Please login again.")
	})
}

func TestSession(t *testing.T) {
	t.Run("Logout clears state", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", false)
		_, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: testEmail, Password: "secret1"})
		require.NoError(t, err)

		require.NoError(t, env.uc.Logout(context.Background(), testSession))

		status, err := env.uc.SessionStatus(context.Background(), testSession)
		require.NoError(t, err)
		assert.False(t, status.Authenticated)
		assert.Equal(t, entity.RegistrationNone, status.RegistrationState)
	})

	t.Run("Logout without session", func(t *testing.T) {
		env := newTestEnv(t)
		assert.NoError(t, env.uc.Logout(context.Background(), ""))
	})
}

func TestTOTPSetup(t *testing.T) {
	t.Run("Reuses enrollment for its owner", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", false)
		_, err := env.uc.Login(context.Background(), testSession, LoginInput{Identifier: testEmail, Password: "secret1"})
		require.NoError(t, err)

		// Act
		first, err := env.uc.TOTPSetup(context.Background(), testSession, TOTPSetupInput{Contact: testEmail})
		require.NoError(t, err)
		second, err := env.uc.TOTPSetup(context.Background(), testSession, TOTPSetupInput{Contact: testEmail})
		require.NoError(t, err)

		// Assert
		assert.Equal(t, first.Enrollment.Secret, second.Enrollment.Secret)
		assert.True(t, env.db.secrets[member.ID].Enabled)

		status, err := env.uc.SessionStatus(context.Background(), testSession)
		require.NoError(t, err)
		assert.True(t, status.TOTPSetupPending)

		require.NoError(t, env.uc.TOTPSetupComplete(context.Background(), testSession))
		status, err = env.uc.SessionStatus(context.Background(), testSession)
		require.NoError(t, err)
		assert.False(t, status.TOTPSetupPending)
	})

	t.Run("Other member is refused", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, member, "secret1", true)

		_, err := env.uc.TOTPSetup(context.Background(), testSession, TOTPSetupInput{Contact: testEmail})

		requireCode(t, err, goerror.CodeUnauthorized, "Authentication required")
	})

	t.Run("Unknown contact", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.TOTPSetup(context.Background(), testSession, TOTPSetupInput{Contact: "bob@example.com"})

		requireCode(t, err, goerror.CodeNotFound, "User not found")
	})
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, member, "secret1", false)

	t.Run("Without claims", func(t *testing.T) {
		_, err := env.uc.Profile(context.Background())
		requireCode(t, err, goerror.CodeUnauthorized, "")
	})

	t.Run("With claims", func(t *testing.T) {
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{MemberID: member.ID})

		user, err := env.uc.Profile(ctx)

		require.NoError(t, err)
		assert.Equal(t, member.Email, user.Email)
		assert.Empty(t, user.PasswordHash)
	})
}
