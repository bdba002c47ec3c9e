package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
)

type Login2FAInput struct {
	Code string `validate:"required,otp_code"`
}

// Login2FA completes a pending login with an authenticator code. A wrong
// code keeps the pending login so the member can try again.
func (s *Usecase) Login2FA(ctx context.Context, sessionID string, in Login2FAInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login2FA")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pending := sess.PendingLogin
	if pending == nil {
		slog.WarnContext(ctx, "second factor without pending login")
		return nil, goerror.NewBusiness("No pending login. Please login again.", goerror.CodeNotFound)
	}

	secret, err := s.repoDB.GetTOTPSecret(ctx, pending.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pending login has no totp secret", "user_id", pending.UserID)
		return nil, goerror.NewBusiness("No pending login. Please login again.", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get totp secret", "user_id", pending.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	plain, err := mfa.OpenString(s.mfaEncryptor, secret.SealedSecret, totpScope(pending.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open totp secret", "user_id", pending.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.totp.Validate(in.Code, plain, s.clock.Now()) {
		slog.WarnContext(ctx, "totp code rejected", "user_id", pending.UserID)
		return nil, goerror.NewBusiness("Invalid or expired code", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, pending.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", pending.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.establish(ctx, sessionID, sess, user)
}
