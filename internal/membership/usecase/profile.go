package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
)

// Profile returns the member behind the bearer token.
func (s *Usecase) Profile(ctx context.Context) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.MemberID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "token subject no longer exists", "user_id", clm.MemberID)
		return nil, goerror.NewBusiness("Member not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.MemberID, "error", err)
		return nil, goerror.NewServer(err)
	}

	user.PasswordHash = ""
	return user, nil
}
