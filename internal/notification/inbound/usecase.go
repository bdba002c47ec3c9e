package inbound

import (
	"context"

	"github.com/shandysiswandi/sportsclub/internal/notification/usecase"
)

type uc interface {
	ConsumeMemberRegistered(ctx context.Context, in usecase.ConsumeMemberRegisteredInput) error
}
