package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
	"github.com/shandysiswandi/sportsclub/internal/pkg/otp"
)

const (
	constraintUserEmail = "users_email_key"
	constraintUserPhone = "users_phone_key"
)

type RegisterFinalizeInput struct {
	Password        string
	ConfirmPassword string
}

type RegisterFinalizeOutput struct {
	User       entity.User
	Enrollment entity.TOTPEnrollment
}

// RegisterFinalize creates the member once every proof is in and enrolls
// the authenticator. The user row and the sealed secret are written in one
// transaction.
func (s *Usecase) RegisterFinalize(ctx context.Context, sessionID string, in RegisterFinalizeInput) (*RegisterFinalizeOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterFinalize")
	defer span.End()

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pending := sess.PendingRegistration
	if pending == nil || !pending.EmailVerified {
		slog.WarnContext(ctx, "finalize without verified email")
		return nil, goerror.NewBusiness(msgRegistrationExpired, goerror.CodeNotFound)
	}
	if s.requirePhoneProof() && !pending.PhoneVerified {
		slog.WarnContext(ctx, "finalize without verified phone", "email", pending.Email)
		return nil, goerror.NewBusiness("Please verify your phone number first", goerror.CodeNotFound)
	}

	fields := []struct{ label, value string }{
		{"First Name", strings.TrimSpace(pending.FirstName)},
		{"Last Name", strings.TrimSpace(pending.LastName)},
		{"Email", strings.TrimSpace(pending.Email)},
		{"Phone", strings.TrimSpace(pending.Phone)},
		{"Password", in.Password},
		{"Confirm Password", in.ConfirmPassword},
	}
	for _, f := range fields {
		if f.value == "" {
			return nil, goerror.NewValidation(f.label + " is required")
		}
	}
	if in.Password != in.ConfirmPassword {
		return nil, goerror.NewValidation("Passwords do not match")
	}
	if len(in.Password) < minPasswordLength {
		return nil, goerror.NewValidation("Password must be at least 6 characters long")
	}
	email := entity.NormalizeEmail(pending.Email)
	if !entity.ValidEmail(email) {
		return nil, goerror.NewValidation("Invalid email format")
	}
	if !entity.ValidPhone(pending.Phone) {
		return nil, goerror.NewValidation("Invalid phone number format")
	}

	passwordHash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	user := entity.User{
		ID:           s.uid.Generate(),
		FirstName:    strings.TrimSpace(pending.FirstName),
		LastName:     strings.TrimSpace(pending.LastName),
		Email:        email,
		Phone:        entity.NormalizePhone(pending.Phone),
		PasswordHash: string(passwordHash),
		CreatedAt:    now,
	}

	enrollment, sealed, err := s.newEnrollment(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	err = s.repoDB.CreateUserWithTOTP(ctx, user, entity.TOTPSecret{
		UserID:       user.ID,
		SealedSecret: sealed,
		Enabled:      true,
		CreatedAt:    now,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "registration lost uniqueness race", "email", user.Email, "constraint", goerror.ConflictConstraint(err))
		if goerror.ConflictConstraint(err) == constraintUserPhone {
			return nil, goerror.NewBusiness("This phone number is already registered. Please login instead.", goerror.CodeConflict)
		}
		return nil, goerror.NewBusiness("This email is already registered. Please login instead.", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "email", user.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	sess.PendingRegistration = nil
	sess.TOTPSetup = &entity.TOTPSetup{UserID: user.ID, Contact: user.Email}
	if err := s.saveSession(ctx, sessionID, sess); err != nil {
		return nil, err
	}

	if err := s.repoMessaging.PublishMemberRegistered(ctx, MemberRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Phone:     user.Phone,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish member registered", "user_id", user.ID, "error", err)
	}

	user.PasswordHash = ""
	return &RegisterFinalizeOutput{User: user, Enrollment: *enrollment}, nil
}

// newEnrollment creates a TOTP secret for account and returns the display
// material together with the sealed secret for storage.
func (s *Usecase) newEnrollment(ctx context.Context, userID int64, account string) (*entity.TOTPEnrollment, string, error) {
	secret, uri, err := s.totp.Generate(account)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", userID, "error", err)
		return nil, "", goerror.NewServer(err)
	}

	sealed, err := mfa.SealString(s.mfaEncryptor, secret, totpScope(userID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal totp secret", "user_id", userID, "error", err)
		return nil, "", goerror.NewServer(err)
	}

	enrollment, err := s.enrollmentFor(ctx, userID, secret, uri)
	if err != nil {
		return nil, "", err
	}
	return enrollment, sealed, nil
}

func (s *Usecase) enrollmentFor(ctx context.Context, userID int64, secret, uri string) (*entity.TOTPEnrollment, error) {
	qr, err := otp.QRCodeDataURI(uri, s.qrCodeSize())
	if err != nil {
		slog.ErrorContext(ctx, "failed to render totp qr code", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return &entity.TOTPEnrollment{Secret: secret, URI: uri, QRCodeURI: qr}, nil
}

func totpScope(userID int64) mfa.Scope {
	return mfa.Scope{UserID: userID, Purpose: mfa.PurposeOTPSeed}
}
