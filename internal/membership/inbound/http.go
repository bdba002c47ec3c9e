package inbound

import (
	"context"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/membership/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
)

type uc interface {
	RegisterStart(ctx context.Context, sessionID string, in usecase.RegisterStartInput) (*usecase.RegisterStartOutput, error)
	RegisterResend(ctx context.Context, sessionID string) error
	RegisterVerifyEmail(ctx context.Context, sessionID string, in usecase.RegisterVerifyEmailInput) (*usecase.RegisterVerifyEmailOutput, error)
	PhoneSendOTP(ctx context.Context, sessionID string, in usecase.PhoneSendOTPInput) (*usecase.PhoneSendOTPOutput, error)
	PhoneVerifyOTP(ctx context.Context, sessionID string, in usecase.PhoneVerifyOTPInput) (*usecase.PhoneVerifyOTPOutput, error)
	RegisterFinalize(ctx context.Context, sessionID string, in usecase.RegisterFinalizeInput) (*usecase.RegisterFinalizeOutput, error)
	CheckEmail(ctx context.Context, in usecase.CheckEmailInput) (*usecase.CheckEmailOutput, error)

	Login(ctx context.Context, sessionID string, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Login2FA(ctx context.Context, sessionID string, in usecase.Login2FAInput) (*usecase.LoginOutput, error)
	Logout(ctx context.Context, sessionID string) error
	SessionStatus(ctx context.Context, sessionID string) (*usecase.SessionStatusOutput, error)

	TOTPSetup(ctx context.Context, sessionID string, in usecase.TOTPSetupInput) (*usecase.TOTPSetupOutput, error)
	TOTPSetupComplete(ctx context.Context, sessionID string) error

	Profile(ctx context.Context) (*entity.User, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration
	r.POST("/api/v1/auth/register", end.RegisterStart)
	r.POST("/api/v1/auth/register/resend", end.RegisterResend)
	r.POST("/api/v1/auth/register/verify-email", end.RegisterVerifyEmail)
	r.POST("/api/v1/auth/register/phone/send", end.PhoneSendOTP)
	r.POST("/api/v1/auth/register/phone/verify", end.PhoneVerifyOTP)
	r.POST("/api/v1/auth/register/complete", end.RegisterFinalize)
	r.GET("/api/v1/auth/check-email", end.CheckEmail)

	// Login & session
	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/auth/login/2fa", end.Login2FA)
	r.POST("/api/v1/auth/logout", end.Logout)
	r.GET("/api/v1/auth/session", end.SessionStatus)

	// Authenticator
	r.POST("/api/v1/auth/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/auth/totp/setup/complete", end.TOTPSetupComplete)

	// Member
	r.GET("/api/v1/members/me", end.Profile, r.Authenticated())
}
