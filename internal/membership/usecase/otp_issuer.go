package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/otp"
)

var errOTPDelivery = errors.New("otp delivery failed")

// issueOTP stores a fresh code for identifier and delivers it. Delivery
// runs inside the store transaction so an undelivered code never stays live.
func (s *Usecase) issueOTP(ctx context.Context, ch entity.Channel, identifier string) (string, error) {
	ctx, span := s.startSpan(ctx, "issueOTP")
	defer span.End()

	code, err := s.code.New()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "channel", ch, "error", err)
		return "", goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.OTPRecord{
		Channel:    ch,
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  now.Add(s.otpPolicy(ch).TTL),
		CreatedAt:  now,
	}

	var deliverErr error
	err = s.repoDB.IssueOTP(ctx, rec, func(ctx context.Context) error {
		if deliverErr = s.deliverer.Deliver(ctx, ch, identifier, code); deliverErr != nil {
			return errors.Join(errOTPDelivery, deliverErr)
		}
		return nil
	})
	if deliverErr != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "channel", ch, "identifier", identifier, "error", deliverErr)
		return "", goerror.NewUpstream(deliveryFailedMessage(ch), deliverErr)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo issue otp", "channel", ch, "identifier", identifier, "error", err)
		return "", goerror.NewServer(err)
	}

	return code, nil
}

// verifyOTP checks code against the live record. Only a store failure is
// returned as error; every other result is an outcome.
func (s *Usecase) verifyOTP(ctx context.Context, ch entity.Channel, identifier, code string) (entity.OTPOutcome, error) {
	ctx, span := s.startSpan(ctx, "verifyOTP")
	defer span.End()

	rec, err := s.repoDB.GetOTP(ctx, ch, identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.OTPNotFound, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp", "channel", ch, "identifier", identifier, "error", err)
		return 0, goerror.NewServer(err)
	}

	if s.clock.Now().After(rec.ExpiresAt) {
		if err := s.repoDB.DeleteOTP(ctx, ch, identifier); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo delete expired otp", "channel", ch, "identifier", identifier, "error", err)
			return 0, goerror.NewServer(err)
		}
		return entity.OTPExpired, nil
	}

	policy := s.otpPolicy(ch)
	if policy.MaxAttempts > 0 && rec.Attempts >= policy.MaxAttempts {
		return entity.OTPTooManyAttempts, nil
	}

	if !otp.EqualCode(rec.Code, code) {
		if policy.MaxAttempts > 0 {
			if _, err := s.repoDB.IncrementOTPAttempts(ctx, ch, identifier); err != nil && !errors.Is(err, goerror.ErrNotFound) {
				slog.ErrorContext(ctx, "failed to repo increment otp attempts", "channel", ch, "identifier", identifier, "error", err)
				return 0, goerror.NewServer(err)
			}
		}
		return entity.OTPMismatch, nil
	}

	if err := s.repoDB.DeleteOTP(ctx, ch, identifier); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete used otp", "channel", ch, "identifier", identifier, "error", err)
		return 0, goerror.NewServer(err)
	}
	return entity.OTPValid, nil
}

// rateLimited reports whether another code may not be issued yet.
func (s *Usecase) rateLimited(ctx context.Context, ch entity.Channel, identifier string) (bool, error) {
	policy := s.otpPolicy(ch)
	if policy.MaxIssuance <= 0 {
		return false, nil
	}

	n, err := s.repoDB.CountOTPIssuances(ctx, ch, identifier, s.clock.Now().Add(-policy.RateWindow))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count otp issuances", "channel", ch, "identifier", identifier, "error", err)
		return false, goerror.NewServer(err)
	}
	return n >= policy.MaxIssuance, nil
}

// otpOutcomeError maps a non valid outcome to the error shown to the user.
func otpOutcomeError(o entity.OTPOutcome) error {
	switch o {
	case entity.OTPValid:
		return nil
	case entity.OTPNotFound:
		return goerror.NewBusiness("OTP not found. Please request a new one.", goerror.CodeNotFound)
	case entity.OTPExpired:
		return goerror.NewBusiness("OTP has expired. Please register again.", goerror.CodeExpired)
	case entity.OTPMismatch:
		return goerror.NewBusiness("Invalid OTP. Please try again.", goerror.CodeMismatch)
	case entity.OTPTooManyAttempts:
		return goerror.NewBusiness("Too many failed attempts. Please request a new code.", goerror.CodeTooManyAttempts)
	default:
		return goerror.NewServer(errors.New("unknown otp outcome"))
	}
}

func deliveryFailedMessage(ch entity.Channel) string {
	if ch == entity.ChannelPhone {
		return "Failed to send OTP"
	}
	return "Failed to send verification email"
}
