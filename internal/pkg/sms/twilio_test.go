package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC1/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
		assert.Equal(t, "code 123456", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "secret", From: "+15550000000", BaseURL: srv.URL})

	rcpt, err := tw.Send(context.Background(), "+15551234567", "code 123456")
	require.NoError(t, err)
	assert.Equal(t, Receipt{ID: "SM1", Status: "queued"}, rcpt)
}

func TestTwilioRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM2","status":"queued"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "x", From: "+1", BaseURL: srv.URL, MaxRetries: 2})

	rcpt, err := tw.Send(context.Background(), "+15551234567", "hi")
	require.NoError(t, err)
	assert.Equal(t, "SM2", rcpt.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTwilioRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "x", From: "+1", BaseURL: srv.URL, MaxRetries: 3})

	_, err := tw.Send(context.Background(), "+15551234567", "hi")
	assert.ErrorIs(t, err, ErrProviderRejects)
}

func TestTwilioPreconditions(t *testing.T) {
	_, err := NewTwilio(TwilioConfig{}).Send(context.Background(), "+1555", "hi")
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewTwilio(TwilioConfig{AccountSID: "a", AuthToken: "b", From: "+1"}).Send(context.Background(), "5551234567", "hi")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}
