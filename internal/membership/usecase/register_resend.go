package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

const msgRegistrationExpired = "Registration session expired. Please register again."

// RegisterResend issues a new email code for a registration that has not
// verified its email yet. The new code replaces the previous one.
func (s *Usecase) RegisterResend(ctx context.Context, sessionID string) error {
	ctx, span := s.startSpan(ctx, "RegisterResend")
	defer span.End()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	pending := sess.PendingRegistration
	if pending == nil {
		slog.WarnContext(ctx, "resend without pending registration")
		return goerror.NewBusiness(msgRegistrationExpired, goerror.CodeNotFound)
	}
	if pending.EmailVerified {
		return goerror.NewBusiness("Email already verified", goerror.CodeConflict)
	}

	if _, err := s.issueOTP(ctx, entity.ChannelEmail, pending.Email); err != nil {
		return err
	}

	return nil
}
