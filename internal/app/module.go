package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/sportsclub/internal/assistant"
	"github.com/shandysiswandi/sportsclub/internal/membership"
	"github.com/shandysiswandi/sportsclub/internal/notification"
)

func (a *App) initModules() {
	a.router.GET("/health", a.health)

	if a.config.GetBool("modules.membership.enabled") {
		if err := membership.New(membership.Dependency{
			DBConn:       a.dbConn,
			CacheConn:    a.cacheConn,
			Router:       a.router,
			Messaging:    a.messaging,
			Mail:         a.mail,
			SMS:          a.sms,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			Password:     a.password,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Totp:         a.totp,
			Code:         a.code,
			Validator:    a.validator,
			JWT:          a.jwt,
		}); err != nil {
			slog.Error("failed to init module membership", "error", err)
			os.Exit(1)
		}
		a.modules = append(a.modules, "membership")
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
		a.modules = append(a.modules, "notification")
	}

	if a.config.GetBool("modules.assistant.enabled") {
		if err := assistant.New(assistant.Dependency{
			Storage:    a.storage,
			Router:     a.router,
			Config:     a.config,
			Clock:      a.clock,
			Validator:  a.validator,
			Instrument: a.ins,
		}); err != nil {
			slog.Error("failed to init module assistant", "error", err)
			os.Exit(1)
		}
		a.modules = append(a.modules, "assistant")
	}
}
