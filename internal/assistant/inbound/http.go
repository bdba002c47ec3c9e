package inbound

import (
	"context"

	"github.com/shandysiswandi/sportsclub/internal/assistant/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
)

type uc interface {
	Ask(ctx context.Context, in usecase.AskInput) (*usecase.AskOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/chat", end.Ask)
}
