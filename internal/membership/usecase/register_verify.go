package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

type RegisterVerifyEmailInput struct {
	Code string
}

type RegisterVerifyEmailOutput struct {
	State entity.RegistrationState
}

// RegisterVerifyEmail marks the pending email as proven. A wrong or expired
// code leaves the pending registration in place.
func (s *Usecase) RegisterVerifyEmail(ctx context.Context, sessionID string, in RegisterVerifyEmailInput) (*RegisterVerifyEmailOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterVerifyEmail")
	defer span.End()

	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, goerror.NewValidation("OTP is required")
	}

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pending := sess.PendingRegistration
	if pending == nil {
		slog.WarnContext(ctx, "verify email without pending registration")
		return nil, goerror.NewBusiness(msgRegistrationExpired, goerror.CodeNotFound)
	}

	if !pending.EmailVerified {
		outcome, err := s.verifyOTP(ctx, entity.ChannelEmail, pending.Email, code)
		if err != nil {
			return nil, err
		}
		if outcome != entity.OTPValid {
			slog.WarnContext(ctx, "email otp rejected", "email", pending.Email, "outcome", outcome.String())
			return nil, otpOutcomeError(outcome)
		}

		pending.EmailVerified = true
		if err := s.saveSession(ctx, sessionID, sess); err != nil {
			return nil, err
		}
	}

	return &RegisterVerifyEmailOutput{State: sess.RegistrationState()}, nil
}
