package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/sportsclub/internal/membership/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/messaging"
	"github.com/shandysiswandi/sportsclub/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishMemberRegistered keys the message by member id so a partitioned
// broker keeps one member's events in order.
func (m *Messaging) PublishMemberRegistered(ctx context.Context, msg usecase.MemberRegisteredEvent) error {
	ctx, span := m.ins.Tracer("membership.outbound.mq").Start(ctx, "PublishMemberRegistered")
	defer span.End()

	body, err := json.Marshal(event.MemberRegisteredMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		Phone:     msg.Phone,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.MemberRegisteredDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(msg.UserID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
