package membership

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/membership/inbound"
	"github.com/shandysiswandi/sportsclub/internal/membership/outbound/db"
	"github.com/shandysiswandi/sportsclub/internal/membership/outbound/delivery"
	"github.com/shandysiswandi/sportsclub/internal/membership/outbound/mq"
	"github.com/shandysiswandi/sportsclub/internal/membership/outbound/session"
	"github.com/shandysiswandi/sportsclub/internal/membership/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/hash"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mail"
	"github.com/shandysiswandi/sportsclub/internal/pkg/messaging"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
	"github.com/shandysiswandi/sportsclub/internal/pkg/otp"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
	"github.com/shandysiswandi/sportsclub/internal/pkg/sms"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
	"github.com/shandysiswandi/sportsclub/internal/pkg/validator"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	CacheConn    *redis.Client              `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Mail         mail.Mail                  `validate:"required"`
	SMS          sms.SMS                    `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	Password     hash.Hash                  `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Code         otp.Code                   `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	sessions := session.NewRedis(dep.CacheConn, dep.Config.GetSecond("app.session.ttl_seconds"), dep.Instrument)
	deliverer := delivery.New(dep.Mail, dep.SMS, otpTTL(dep.Config), dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Session:       sessions,
		Deliverer:     deliverer,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      dep.Password,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		Code:          dep.Code,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func otpTTL(cfg config.Config) func(entity.Channel) time.Duration {
	return func(ch entity.Channel) time.Duration {
		if ttl := cfg.GetMinute("modules.membership.otp." + ch.String() + ".ttl_minutes"); ttl > 0 {
			return ttl
		}
		return 5 * time.Minute
	}
}
