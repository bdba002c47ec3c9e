package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

type SessionStatusOutput struct {
	RegistrationState   entity.RegistrationState
	PendingLogin        bool
	Authenticated       bool
	AuthenticatedUserID int64
	TOTPSetupPending    bool
}

func (s *Usecase) Logout(ctx context.Context, sessionID string) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if sessionID == "" {
		return nil
	}
	if err := s.session.Delete(ctx, sessionID); err != nil {
		slog.ErrorContext(ctx, "failed to delete session", "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

func (s *Usecase) SessionStatus(ctx context.Context, sessionID string) (*SessionStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "SessionStatus")
	defer span.End()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := &SessionStatusOutput{
		RegistrationState: sess.RegistrationState(),
		PendingLogin:      sess.PendingLogin != nil,
		TOTPSetupPending:  sess.TOTPSetup != nil,
	}
	if sess.AuthenticatedUserID != nil {
		out.Authenticated = true
		out.AuthenticatedUserID = *sess.AuthenticatedUserID
	}
	return out, nil
}
