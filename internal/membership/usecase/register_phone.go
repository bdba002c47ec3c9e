package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

type PhoneSendOTPInput struct {
	Phone string
}

type PhoneSendOTPOutput struct {
	Phone string
}

type PhoneVerifyOTPInput struct {
	Phone string
	Code  string
}

type PhoneVerifyOTPOutput struct {
	Phone string
	State entity.RegistrationState
}

func (s *Usecase) pendingWithVerifiedEmail(ctx context.Context, sessionID string) (*entity.Session, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pending := sess.PendingRegistration
	if pending == nil {
		slog.WarnContext(ctx, "phone step without pending registration")
		return nil, goerror.NewBusiness(msgRegistrationExpired, goerror.CodeNotFound)
	}
	if !pending.EmailVerified {
		slog.WarnContext(ctx, "phone step before email verification", "email", pending.Email)
		return nil, goerror.NewBusiness("Please verify your email first", goerror.CodeNotFound)
	}
	return sess, nil
}

// PhoneSendOTP sends a code to the phone being registered, subject to the
// channel's issuance rate limit.
func (s *Usecase) PhoneSendOTP(ctx context.Context, sessionID string, in PhoneSendOTPInput) (*PhoneSendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "PhoneSendOTP")
	defer span.End()

	if strings.TrimSpace(in.Phone) == "" {
		return nil, goerror.NewValidation("Phone number is required")
	}
	if !entity.ValidPhone(in.Phone) {
		return nil, goerror.NewValidation("Invalid phone number format")
	}
	phone := entity.NormalizePhone(in.Phone)

	if _, err := s.pendingWithVerifiedEmail(ctx, sessionID); err != nil {
		return nil, err
	}

	limited, err := s.rateLimited(ctx, entity.ChannelPhone, phone)
	if err != nil {
		return nil, err
	}
	if limited {
		slog.WarnContext(ctx, "phone otp rate limited", "phone", phone)
		return nil, goerror.NewBusiness("Too many OTP requests. Please try again later.", goerror.CodeTooManyRequest)
	}

	if _, err := s.issueOTP(ctx, entity.ChannelPhone, phone); err != nil {
		return nil, err
	}

	return &PhoneSendOTPOutput{Phone: phone}, nil
}

// PhoneVerifyOTP proves ownership of the phone. The verified number replaces
// the one given at registration start.
func (s *Usecase) PhoneVerifyOTP(ctx context.Context, sessionID string, in PhoneVerifyOTPInput) (*PhoneVerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "PhoneVerifyOTP")
	defer span.End()

	code := strings.TrimSpace(in.Code)
	if strings.TrimSpace(in.Phone) == "" || code == "" {
		return nil, goerror.NewValidation("Phone and OTP are required")
	}
	phone := entity.NormalizePhone(in.Phone)

	sess, err := s.pendingWithVerifiedEmail(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.verifyOTP(ctx, entity.ChannelPhone, phone, code)
	if err != nil {
		return nil, err
	}
	if outcome != entity.OTPValid {
		slog.WarnContext(ctx, "phone otp rejected", "phone", phone, "outcome", outcome.String())
		if outcome == entity.OTPExpired {
			return nil, goerror.NewBusiness("OTP has expired. Please request a new one.", goerror.CodeExpired)
		}
		return nil, otpOutcomeError(outcome)
	}

	sess.PendingRegistration.Phone = phone
	sess.PendingRegistration.PhoneVerified = true
	if err := s.saveSession(ctx, sessionID, sess); err != nil {
		return nil, err
	}

	return &PhoneVerifyOTPOutput{Phone: phone, State: sess.RegistrationState()}, nil
}
