package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/sportsclub/internal/notification/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/idempotency"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mail"
	"github.com/shandysiswandi/sportsclub/internal/pkg/valueobject"
)

type ConsumeMemberRegisteredInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"required"`
	LastName  string
}

// ConsumeMemberRegistered sends the welcome email at most once per member.
// A delivery failure is returned so the broker redelivers.
func (s *Usecase) ConsumeMemberRegistered(ctx context.Context, in ConsumeMemberRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeMemberRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	key := entity.TriggerKeyMemberWelcome.String() + ":" + strconv.FormatInt(in.UserID, 10)
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendWelcomeEmail(ctx, in)
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.InfoContext(ctx, "welcome email already sent", "user_id", in.UserID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send welcome email", "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}

func (s *Usecase) sendWelcomeEmail(ctx context.Context, in ConsumeMemberRegisteredInput) error {
	data := s.baseEmailTemplateData()
	data["first_name"] = in.FirstName
	data["last_name"] = in.LastName

	body, err := s.renderTemplate("welcome", welcomeBody, data)
	if err != nil {
		return goerror.NewServer(err)
	}

	logID := s.uuid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:        logID,
		Trigger:   entity.TriggerKeyMemberWelcome,
		Channel:   entity.ChannelEmail,
		Recipient: in.Email,
		Status:    entity.DeliveryStatusQueued,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  welcomeSubject,
		HTMLBody: body,
	})

	up := entity.UpdateDeliveryLog{ID: logID, Status: entity.DeliveryStatusSent, ProviderResponse: valueobject.JSONMap{}}
	if mailErr != nil {
		up.Status = entity.DeliveryStatusFailed
		up.ProviderResponse = valueobject.JSONMap{"error": mailErr.Error()}
	}
	if err := s.repoDB.UpdateDeliveryLogStatus(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log status", "log_id", logID, "status", up.Status.String(), "error", err)
	}

	if mailErr != nil {
		return goerror.NewUpstream("Failed to send welcome email", mailErr)
	}

	return nil
}
