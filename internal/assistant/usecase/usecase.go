package usecase

import (
	"context"

	"github.com/shandysiswandi/sportsclub/internal/assistant/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type knowledgeLoader interface {
	Load(ctx context.Context) (entity.Knowledge, error)
}

type chatModel interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

type Usecase struct {
	knowledge knowledgeLoader
	model     chatModel
	cfg       config.Config
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	Knowledge  knowledgeLoader
	Model      chatModel
	Config     config.Config
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		knowledge: dep.Knowledge,
		model:     dep.Model,
		cfg:       dep.Config,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("assistant.usecase").Start(ctx, name)
}
