package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

type CheckEmailInput struct {
	Email string `validate:"required"`
}

type CheckEmailOutput struct {
	Exists    bool
	Available bool
}

func (s *Usecase) CheckEmail(ctx context.Context, in CheckEmailInput) (*CheckEmailOutput, error) {
	ctx, span := s.startSpan(ctx, "CheckEmail")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !entity.ValidEmail(in.Email) {
		return nil, goerror.NewValidation("Invalid email format")
	}

	_, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return &CheckEmailOutput{Exists: false, Available: true}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CheckEmailOutput{Exists: true, Available: false}, nil
}
