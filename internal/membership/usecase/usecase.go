package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/hash"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
	"github.com/shandysiswandi/sportsclub/internal/pkg/otp"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
	"github.com/shandysiswandi/sportsclub/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL      = 5 * time.Minute
	defaultRateWindow  = 5 * time.Minute
	defaultTOTPIssuer  = "Sports Club"
	defaultQRCodeSize  = 256
	minPasswordLength  = 6
	msgSessionRequired = "Session is required"
)

type MemberRegisteredEvent struct {
	UserID    int64
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

type repoMessaging interface {
	PublishMemberRegistered(ctx context.Context, msg MemberRegisteredEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	CreateUserWithTOTP(ctx context.Context, user entity.User, secret entity.TOTPSecret) error

	GetTOTPSecret(ctx context.Context, userID int64) (*entity.TOTPSecret, error)
	UpsertTOTPSecret(ctx context.Context, secret entity.TOTPSecret) error

	// IssueOTP replaces the record for rec.Identifier, appends an issuance
	// row and runs deliver before committing; a deliver error rolls back.
	IssueOTP(ctx context.Context, rec entity.OTPRecord, deliver func(ctx context.Context) error) error
	GetOTP(ctx context.Context, ch entity.Channel, identifier string) (*entity.OTPRecord, error)
	DeleteOTP(ctx context.Context, ch entity.Channel, identifier string) error
	IncrementOTPAttempts(ctx context.Context, ch entity.Channel, identifier string) (int, error)
	CountOTPIssuances(ctx context.Context, ch entity.Channel, identifier string, since time.Time) (int, error)
}

type sessionStore interface {
	// Get never returns a nil session; an unknown id yields an empty one.
	Get(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, id string, sess *entity.Session) error
	Delete(ctx context.Context, id string) error
}

type deliverer interface {
	Deliver(ctx context.Context, ch entity.Channel, identifier, code string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	session       sessionStore
	deliverer     deliverer
	validator     validator.Validator
	cfg           config.Config
	password      hash.Hash
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	code          otp.Code
	totp          otp.OTP
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Session       sessionStore
	Deliverer     deliverer
	Validator     validator.Validator
	Config        config.Config
	Password      hash.Hash
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	Code          otp.Code
	Totp          otp.OTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		session:       dep.Session,
		deliverer:     dep.Deliverer,
		validator:     dep.Validator,
		cfg:           dep.Config,
		password:      dep.Password,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		code:          dep.Code,
		totp:          dep.Totp,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("membership.usecase").Start(ctx, name)
}

func (s *Usecase) loadSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	if sessionID == "" {
		return nil, goerror.NewBusiness(msgSessionRequired, goerror.CodeUnauthorized)
	}

	sess, err := s.session.Get(ctx, sessionID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load session", "error", err)
		return nil, goerror.NewServer(err)
	}
	return sess, nil
}

func (s *Usecase) saveSession(ctx context.Context, sessionID string, sess *entity.Session) error {
	if err := s.session.Save(ctx, sessionID, sess); err != nil {
		slog.ErrorContext(ctx, "failed to save session", "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

func (s *Usecase) otpPolicy(ch entity.Channel) entity.OTPPolicy {
	prefix := "modules.membership.otp." + ch.String() + "."

	p := entity.OTPPolicy{
		TTL:         s.cfg.GetMinute(prefix + "ttl_minutes"),
		MaxAttempts: s.cfg.GetInt(prefix + "max_attempts"),
		RateWindow:  s.cfg.GetMinute(prefix + "rate_limit.window_minutes"),
		MaxIssuance: s.cfg.GetInt(prefix + "rate_limit.max_issuance"),
	}
	if p.TTL <= 0 {
		p.TTL = defaultOTPTTL
	}
	if p.RateWindow <= 0 {
		p.RateWindow = defaultRateWindow
	}
	return p
}

func (s *Usecase) requirePhoneProof() bool {
	if s.cfg.GetString("modules.membership.registration.require_phone_proof") == "" {
		return true
	}
	return s.cfg.GetBool("modules.membership.registration.require_phone_proof")
}

func (s *Usecase) totpIssuer() string {
	if v := s.cfg.GetString("modules.membership.totp.issuer"); v != "" {
		return v
	}
	return defaultTOTPIssuer
}

func (s *Usecase) qrCodeSize() int {
	if v := s.cfg.GetInt("modules.membership.totp.qr_size"); v > 0 {
		return v
	}
	return defaultQRCodeSize
}
