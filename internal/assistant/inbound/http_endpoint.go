package inbound

import (
	"github.com/shandysiswandi/sportsclub/internal/assistant/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Ask answers a question about the club.
// @Summary Ask the club assistant
// @Description Answers from the club knowledge document. Provider problems are reported in the reply, not as errors.
// @Tags Assistant
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Question"
// @Success 200 {object} router.successResponse{data=ChatResponse} "Reply"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/chat [post]
func (h *HTTPEndpoint) Ask(r *router.Request) (any, error) {
	var req ChatRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Ask(r.Context(), usecase.AskInput{Message: req.Message})
	if err != nil {
		return nil, err
	}

	return ChatResponse{Reply: resp.Reply}, nil
}
