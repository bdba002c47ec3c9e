package sms

import (
	"context"
	"errors"
)

var (
	ErrDisabled        = errors.New("sms: provider credentials are not configured")
	ErrInvalidNumber   = errors.New("sms: recipient must be in E.164 form")
	ErrProviderRejects = errors.New("sms: provider rejected the message")
)

// SMS sends a text to an E.164 phone number.
type SMS interface {
	Send(ctx context.Context, to, body string) (Receipt, error)
}

// Receipt is what the provider reports about an accepted message.
type Receipt struct {
	ID     string
	Status string
}
