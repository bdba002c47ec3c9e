package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
)

type TOTPSetupInput struct {
	Contact string `validate:"required"`
}

type TOTPSetupOutput struct {
	Contact    string
	Enrollment entity.TOTPEnrollment
}

// TOTPSetup shows the authenticator enrollment of the member identified by
// contact. An enabled secret is shown again rather than rotated. The
// session must belong to that member, either signed in or just registered.
func (s *Usecase) TOTPSetup(ctx context.Context, sessionID string, in TOTPSetupInput) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	in.Contact = strings.TrimSpace(in.Contact)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ch, contact := entity.NormalizeIdentifier(in.Contact)
	var user *entity.User
	if ch == entity.ChannelEmail {
		user, err = s.repoDB.GetUserByEmail(ctx, contact)
	} else {
		user, err = s.repoDB.GetUserByPhone(ctx, contact)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "totp setup for unknown member", "contact", contact)
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user for totp setup", "contact", contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ownsMember(sess, user.ID) {
		slog.WarnContext(ctx, "totp setup for another member", "user_id", user.ID)
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	enrollment, err := s.currentEnrollment(ctx, user)
	if err != nil {
		return nil, err
	}

	sess.TOTPSetup = &entity.TOTPSetup{UserID: user.ID, Contact: contact}
	if err := s.saveSession(ctx, sessionID, sess); err != nil {
		return nil, err
	}

	return &TOTPSetupOutput{Contact: contact, Enrollment: *enrollment}, nil
}

// TOTPSetupComplete acknowledges that the enrollment was scanned.
func (s *Usecase) TOTPSetupComplete(ctx context.Context, sessionID string) error {
	ctx, span := s.startSpan(ctx, "TOTPSetupComplete")
	defer span.End()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.TOTPSetup == nil {
		return nil
	}

	sess.TOTPSetup = nil
	return s.saveSession(ctx, sessionID, sess)
}

func (s *Usecase) currentEnrollment(ctx context.Context, user *entity.User) (*entity.TOTPEnrollment, error) {
	existing, err := s.repoDB.GetTOTPSecret(ctx, user.ID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if existing != nil && existing.Enabled {
		secret, err := mfa.OpenString(s.mfaEncryptor, existing.SealedSecret, totpScope(user.ID))
		if err != nil {
			slog.ErrorContext(ctx, "failed to open totp secret", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		return s.enrollmentFor(ctx, user.ID, secret, s.totp.URI(user.Email, secret))
	}

	enrollment, sealed, err := s.newEnrollment(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.repoDB.UpsertTOTPSecret(ctx, entity.TOTPSecret{
		UserID:       user.ID,
		SealedSecret: sealed,
		Enabled:      true,
		CreatedAt:    s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return enrollment, nil
}

func ownsMember(sess *entity.Session, userID int64) bool {
	if sess.AuthenticatedUserID != nil && *sess.AuthenticatedUserID == userID {
		return true
	}
	return sess.TOTPSetup != nil && sess.TOTPSetup.UserID == userID
}
