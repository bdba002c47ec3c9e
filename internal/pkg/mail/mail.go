package mail

import (
	"context"
	"io"
)

// Message is a provider independent email.
type Message struct {
	// From overrides the configured sender when set.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail sends messages through some provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}
