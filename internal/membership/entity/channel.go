package entity

import "time"

// Channel is the transport a one-time code is delivered over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) String() string { return string(c) }

// OTPOutcome is the result of checking a submitted one-time code.
type OTPOutcome int

const (
	OTPValid OTPOutcome = iota
	OTPExpired
	OTPMismatch
	OTPNotFound
	OTPTooManyAttempts
)

func (o OTPOutcome) String() string {
	switch o {
	case OTPValid:
		return "valid"
	case OTPExpired:
		return "expired"
	case OTPMismatch:
		return "mismatch"
	case OTPNotFound:
		return "not_found"
	case OTPTooManyAttempts:
		return "too_many_attempts"
	default:
		return "unknown"
	}
}

// OTPRecord is the single live code for an identifier on a channel.
type OTPRecord struct {
	Channel    Channel
	Identifier string
	Code       string
	ExpiresAt  time.Time
	Attempts   int
	CreatedAt  time.Time
}

// OTPPolicy tunes issuance and verification for one channel. Zero values
// for MaxAttempts and MaxIssuance disable the respective limit.
type OTPPolicy struct {
	TTL         time.Duration
	MaxAttempts int
	RateWindow  time.Duration
	MaxIssuance int
}
