package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

const msgInvalidCredentials = "Invalid email/phone or password"

type LoginInput struct {
	Identifier string
	Password   string
}

type LoginOutput struct {
	Result      entity.AuthResult
	UserID      int64
	AccessToken string
}

// Login checks the primary credentials. Members with an enabled
// authenticator are parked in a pending login until Login2FA.
func (s *Usecase) Login(ctx context.Context, sessionID string, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if strings.TrimSpace(in.Identifier) == "" || in.Password == "" {
		return nil, goerror.NewValidation("All fields are required")
	}

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ch, identifier := entity.NormalizeIdentifier(in.Identifier)

	var user *entity.User
	if ch == entity.ChannelEmail {
		user, err = s.repoDB.GetUserByEmail(ctx, identifier)
	} else {
		user, err = s.repoDB.GetUserByPhone(ctx, identifier)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login for unknown member", "identifier", identifier)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user for login", "identifier", identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "login password mismatch", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}

	secret, err := s.repoDB.GetTOTPSecret(ctx, user.ID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if secret != nil && secret.Enabled {
		sess.AuthenticatedUserID = nil
		sess.PendingLogin = &entity.PendingLogin{Identifier: identifier, UserID: user.ID}
		if err := s.saveSession(ctx, sessionID, sess); err != nil {
			return nil, err
		}
		return &LoginOutput{Result: entity.AuthSecondFactorRequired, UserID: user.ID}, nil
	}

	return s.establish(ctx, sessionID, sess, user)
}

func (s *Usecase) establish(ctx context.Context, sessionID string, sess *entity.Session, user *entity.User) (*LoginOutput, error) {
	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sess.SetAuthenticated(user.ID)
	if err := s.saveSession(ctx, sessionID, sess); err != nil {
		return nil, err
	}

	return &LoginOutput{Result: entity.AuthSessionEstablished, UserID: user.ID, AccessToken: token}, nil
}
