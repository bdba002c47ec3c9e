package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goroutine"
	"github.com/shandysiswandi/sportsclub/internal/pkg/hash"
	"github.com/shandysiswandi/sportsclub/internal/pkg/idempotency"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mail"
	"github.com/shandysiswandi/sportsclub/internal/pkg/messaging"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
	"github.com/shandysiswandi/sportsclub/internal/pkg/otp"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
	"github.com/shandysiswandi/sportsclub/internal/pkg/sms"
	"github.com/shandysiswandi/sportsclub/internal/pkg/storage"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
	"github.com/shandysiswandi/sportsclub/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	password     hash.Hash
	uid          uid.NumberID
	uuid         uid.StringID
	sessionID    uid.StringID
	totp         otp.OTP
	code         otp.Code
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	sms       sms.SMS
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server
	modules    []string

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initSMS()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
