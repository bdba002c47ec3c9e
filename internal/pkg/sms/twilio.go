package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	// BaseURL overrides the API root, tests point it at httptest.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// Twilio sends messages through the Twilio Messages API.
type Twilio struct {
	cfg    TwilioConfig
	client *http.Client
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewTwilio(cfg TwilioConfig) *Twilio {
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Twilio{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Enabled reports whether credentials are present.
func (t *Twilio) Enabled() bool {
	return t.cfg.AccountSID != "" && t.cfg.AuthToken != "" && t.cfg.From != ""
}

func (t *Twilio) Send(ctx context.Context, to, body string) (Receipt, error) {
	if !t.Enabled() {
		return Receipt{}, ErrDisabled
	}
	if !strings.HasPrefix(to, "+") {
		return Receipt{}, ErrInvalidNumber
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimRight(t.cfg.BaseURL, "/"), url.PathEscape(t.cfg.AccountSID))
	form := url.Values{"To": {to}, "From": {t.cfg.From}, "Body": {body}}.Encode()

	b := retry.NewExponential(250 * time.Millisecond)
	b = retry.WithMaxRetries(t.cfg.MaxRetries, b)
	b = retry.WithCappedDuration(2*time.Second, b)

	var rcpt Receipt
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		rcpt, err = t.post(ctx, endpoint, form)
		return err
	})
	if err != nil {
		return Receipt{}, err
	}

	slog.InfoContext(ctx, "sms accepted by provider", "sid", rcpt.ID, "status", rcpt.Status)
	return rcpt, nil
}

func (t *Twilio) post(ctx context.Context, endpoint, form string) (Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return Receipt{}, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	var out twilioResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return Receipt{}, fmt.Errorf("sms: decode provider response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return Receipt{ID: out.SID, Status: out.Status}, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return Receipt{}, retry.RetryableError(fmt.Errorf("sms: provider status %d", resp.StatusCode))
	default:
		return Receipt{}, fmt.Errorf("%w: status %d code %d: %s", ErrProviderRejects, resp.StatusCode, out.Code, out.Message)
	}
}
