package assistant

import (
	"github.com/shandysiswandi/sportsclub/internal/assistant/inbound"
	"github.com/shandysiswandi/sportsclub/internal/assistant/outbound/knowledge"
	"github.com/shandysiswandi/sportsclub/internal/assistant/outbound/llm"
	"github.com/shandysiswandi/sportsclub/internal/assistant/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
	"github.com/shandysiswandi/sportsclub/internal/pkg/storage"
	"github.com/shandysiswandi/sportsclub/internal/pkg/validator"
)

type Dependency struct {
	Storage    storage.Storage            `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	loader := knowledge.NewLoader(dep.Storage, knowledge.Config{
		Bucket:     dep.Config.GetString("modules.assistant.knowledge.bucket"),
		Key:        dep.Config.GetString("modules.assistant.knowledge.key"),
		TTL:        dep.Config.GetSecond("modules.assistant.knowledge.cache_ttl_seconds"),
		PerSection: dep.Config.GetInt("modules.assistant.knowledge.paragraphs_per_section"),
	}, dep.Clock, dep.Instrument)

	model := llm.NewGemini(llm.GeminiConfig{
		APIKey:     dep.Config.GetString("modules.assistant.gemini.api_key"),
		Model:      dep.Config.GetString("modules.assistant.gemini.model"),
		BaseURL:    dep.Config.GetString("modules.assistant.gemini.base_url"),
		Timeout:    dep.Config.GetSecond("modules.assistant.gemini.timeout_seconds"),
		MaxRetries: uint64(max(dep.Config.GetInt("modules.assistant.gemini.max_retries"), 0)),
	}, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		Knowledge:  loader,
		Model:      model,
		Config:     dep.Config,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
