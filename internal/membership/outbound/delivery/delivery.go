package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mail"
	"github.com/shandysiswandi/sportsclub/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrUnknownChannel = errors.New("delivery: unknown channel")

const emailSubject = "Verify Your Email - Sports Club"

var emailBody = template.Must(template.New("otp_email").Parse(`Thank you for registering with Sports Club!
<br><br>
Your verification code is:
<br><br>
<div style="background-color: #f3f4f6; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0;">
    <span style="font-size: 32px; font-weight: bold; color: #4f46e5; letter-spacing: 8px;">{{.Code}}</span>
</div>
<br>
This code will expire in {{.Minutes}} minutes. Please enter it on the verification page to complete your registration.
`))

const smsBody = "Your Sports Club verification code is: %s\n\nThis code will expire in %d minutes.\n\nIf you didn't request this, please ignore this message."

// Delivery sends one-time codes over the channel they were issued for.
type Delivery struct {
	mail mail.Mail
	sms  sms.SMS
	ttl  func(entity.Channel) time.Duration
	ins  instrument.Instrumentation
}

// New returns a Delivery. ttl reports the code lifetime shown to the
// recipient.
func New(m mail.Mail, s sms.SMS, ttl func(entity.Channel) time.Duration, ins instrument.Instrumentation) *Delivery {
	return &Delivery{mail: m, sms: s, ttl: ttl, ins: ins}
}

func (d *Delivery) Deliver(ctx context.Context, ch entity.Channel, identifier, code string) (err error) {
	ctx, span := d.ins.Tracer("membership.outbound.delivery").Start(ctx, "Deliver")
	span.SetAttributes(attribute.String("channel", ch.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	minutes := int(d.ttl(ch) / time.Minute)

	switch ch {
	case entity.ChannelEmail:
		var buf bytes.Buffer
		if err := emailBody.Execute(&buf, map[string]any{"Code": code, "Minutes": minutes}); err != nil {
			return err
		}
		return d.mail.Send(ctx, mail.Message{
			To:       []string{identifier},
			Subject:  emailSubject,
			HTMLBody: buf.String(),
			TextBody: fmt.Sprintf("Your Sports Club verification code is: %s", code),
		})
	case entity.ChannelPhone:
		_, err := d.sms.Send(ctx, identifier, fmt.Sprintf(smsBody, code, minutes))
		return err
	default:
		return ErrUnknownChannel
	}
}
