package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

type RegisterStartInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

type RegisterStartOutput struct {
	Email string
	State entity.RegistrationState
}

// RegisterStart checks the submitted fields in a fixed order, sends the
// email code and keeps the fields in the session. Restarting replaces any
// previous pending registration.
func (s *Usecase) RegisterStart(ctx context.Context, sessionID string, in RegisterStartInput) (*RegisterStartOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterStart")
	defer span.End()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = entity.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Phone == "" ||
		in.Password == "" || in.ConfirmPassword == "" {
		return nil, goerror.NewValidation("All fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, goerror.NewValidation("Passwords do not match")
	}
	if len(in.Password) < minPasswordLength {
		return nil, goerror.NewValidation("Password must be at least 6 characters")
	}
	if !entity.ValidEmail(in.Email) {
		return nil, goerror.NewValidation("Invalid email format")
	}

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmailUnused(ctx, in.Email); err != nil {
		return nil, err
	}

	phone := entity.NormalizePhone(in.Phone)
	if err := s.ensurePhoneUnused(ctx, phone); err != nil {
		return nil, err
	}

	if _, err := s.issueOTP(ctx, entity.ChannelEmail, in.Email); err != nil {
		return nil, err
	}

	sess.PendingRegistration = &entity.PendingRegistration{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     phone,
		Password:  in.Password,
		StartedAt: s.clock.Now(),
	}
	if err := s.saveSession(ctx, sessionID, sess); err != nil {
		return nil, err
	}

	return &RegisterStartOutput{Email: in.Email, State: sess.RegistrationState()}, nil
}

func (s *Usecase) ensureEmailUnused(ctx context.Context, email string) error {
	_, err := s.repoDB.GetUserByEmail(ctx, email)
	if err == nil {
		slog.WarnContext(ctx, "registration email already in use", "email", email)
		return goerror.NewBusiness("Email already registered. Please login instead.", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

func (s *Usecase) ensurePhoneUnused(ctx context.Context, phone string) error {
	_, err := s.repoDB.GetUserByPhone(ctx, phone)
	if err == nil {
		slog.WarnContext(ctx, "registration phone already in use", "phone", phone)
		return goerror.NewBusiness("Phone already registered. Please login instead.", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by phone", "phone", phone, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}
