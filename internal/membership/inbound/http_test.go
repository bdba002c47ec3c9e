package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/membership/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUC struct{ mock.Mock }

func (m *mockUC) RegisterStart(ctx context.Context, sid string, in usecase.RegisterStartInput) (*usecase.RegisterStartOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.RegisterStartOutput)
	return out, args.Error(1)
}

func (m *mockUC) RegisterResend(ctx context.Context, sid string) error {
	return m.Called(ctx, sid).Error(0)
}

func (m *mockUC) RegisterVerifyEmail(ctx context.Context, sid string, in usecase.RegisterVerifyEmailInput) (*usecase.RegisterVerifyEmailOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.RegisterVerifyEmailOutput)
	return out, args.Error(1)
}

func (m *mockUC) PhoneSendOTP(ctx context.Context, sid string, in usecase.PhoneSendOTPInput) (*usecase.PhoneSendOTPOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.PhoneSendOTPOutput)
	return out, args.Error(1)
}

func (m *mockUC) PhoneVerifyOTP(ctx context.Context, sid string, in usecase.PhoneVerifyOTPInput) (*usecase.PhoneVerifyOTPOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.PhoneVerifyOTPOutput)
	return out, args.Error(1)
}

func (m *mockUC) RegisterFinalize(ctx context.Context, sid string, in usecase.RegisterFinalizeInput) (*usecase.RegisterFinalizeOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.RegisterFinalizeOutput)
	return out, args.Error(1)
}

func (m *mockUC) CheckEmail(ctx context.Context, in usecase.CheckEmailInput) (*usecase.CheckEmailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.CheckEmailOutput)
	return out, args.Error(1)
}

func (m *mockUC) Login(ctx context.Context, sid string, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.LoginOutput)
	return out, args.Error(1)
}

func (m *mockUC) Login2FA(ctx context.Context, sid string, in usecase.Login2FAInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.LoginOutput)
	return out, args.Error(1)
}

func (m *mockUC) Logout(ctx context.Context, sid string) error {
	return m.Called(ctx, sid).Error(0)
}

func (m *mockUC) SessionStatus(ctx context.Context, sid string) (*usecase.SessionStatusOutput, error) {
	args := m.Called(ctx, sid)
	out, _ := args.Get(0).(*usecase.SessionStatusOutput)
	return out, args.Error(1)
}

func (m *mockUC) TOTPSetup(ctx context.Context, sid string, in usecase.TOTPSetupInput) (*usecase.TOTPSetupOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(*usecase.TOTPSetupOutput)
	return out, args.Error(1)
}

func (m *mockUC) TOTPSetupComplete(ctx context.Context, sid string) error {
	return m.Called(ctx, sid).Error(0)
}

func (m *mockUC) Profile(ctx context.Context) (*entity.User, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestServer(t *testing.T) (*router.Router, *mockUC, *jwt.Symmetric) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  session:\n    secret: s3cret\n    cookie_name: sid\n"))
	require.NoError(t, err)
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("k"), 64),
		TTL:    time.Minute,
		Clock:  clock.New(),
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), SessionID: fixedID("sess-1"), JWT: tokens})
	m := &mockUC{}
	RegisterHTTPEndpoint(r, m)
	return r, m, tokens
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRegisterStartEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		r, m, _ := newTestServer(t)
		m.On("RegisterStart", mock.Anything, "sess-1", usecase.RegisterStartInput{
			FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Phone: "5551234567",
			Password: "secret1", ConfirmPassword: "secret1",
		}).Return(&usecase.RegisterStartOutput{Email: "ana@example.com", State: entity.RegistrationEmailPending}, nil).Once()

		// Act
		rec, body := do(t, r, http.MethodPost, "/api/v1/auth/register",
			`{"first_name":"Ana","last_name":"Lima","email":"ana@example.com","phone":"5551234567","password":"secret1","confirm_password":"secret1"}`)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Verification code sent. Please check your email.", body["message"])
		assert.Equal(t, map[string]any{"email": "ana@example.com", "state": "email_pending"}, body["data"])
		require.Len(t, rec.Result().Cookies(), 1)
		assert.True(t, strings.HasPrefix(rec.Result().Cookies()[0].Value, "sess-1."))
		m.AssertExpectations(t)
	})

	t.Run("Unknown field", func(t *testing.T) {
		r, m, _ := newTestServer(t)

		rec, _ := do(t, r, http.MethodPost, "/api/v1/auth/register", `{"nickname":"x"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		m.AssertNotCalled(t, "RegisterStart", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Conflict", func(t *testing.T) {
		r, m, _ := newTestServer(t)
		m.On("RegisterStart", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, goerror.NewBusiness("Email already registered. Please login instead.", goerror.CodeConflict))

		rec, body := do(t, r, http.MethodPost, "/api/v1/auth/register", `{"email":"ana@example.com"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already registered. Please login instead.", body["message"])
	})
}

func TestOTPEndpointsStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"mismatch", goerror.NewBusiness("Invalid OTP. Please try again.", goerror.CodeMismatch), http.StatusBadRequest},
		{"expired", goerror.NewBusiness("OTP has expired. Please register again.", goerror.CodeExpired), http.StatusGone},
		{"not found", goerror.NewBusiness("OTP not found. Please request a new one.", goerror.CodeNotFound), http.StatusNotFound},
		{"delivery", goerror.NewUpstream("Failed to send verification email", nil), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, m, _ := newTestServer(t)
			m.On("RegisterVerifyEmail", mock.Anything, "sess-1", usecase.RegisterVerifyEmailInput{Code: "123456"}).Return(nil, tc.err)

			rec, _ := do(t, r, http.MethodPost, "/api/v1/auth/register/verify-email", `{"code":"123456"}`)

			assert.Equal(t, tc.want, rec.Code)
		})
	}

	t.Run("Phone rate limited", func(t *testing.T) {
		r, m, _ := newTestServer(t)
		m.On("PhoneSendOTP", mock.Anything, "sess-1", usecase.PhoneSendOTPInput{Phone: "+15551234567"}).
			Return(nil, goerror.NewBusiness("Too many OTP requests. Please try again later.", goerror.CodeTooManyRequest))

		rec, body := do(t, r, http.MethodPost, "/api/v1/auth/register/phone/send", `{"phone":"+15551234567"}`)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "Too many OTP requests. Please try again later.", body["message"])
	})
}

func TestRegisterFinalizeEndpoint(t *testing.T) {
	r, m, _ := newTestServer(t)
	m.On("RegisterFinalize", mock.Anything, "sess-1", usecase.RegisterFinalizeInput{Password: "secret1", ConfirmPassword: "secret1"}).
		Return(&usecase.RegisterFinalizeOutput{
			User:       entity.User{ID: 1234567890123, Email: "ana@example.com", FirstName: "Ana"},
			Enrollment: entity.TOTPEnrollment{Secret: "JBSWY3DP", URI: "otpauth://totp/x", QRCodeURI: "data:image/png;base64,AA=="},
		}, nil)

	rec, body := do(t, r, http.MethodPost, "/api/v1/auth/register/complete", `{"password":"secret1","confirm_password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "1234567890123", data["member"].(map[string]any)["id"])
	assert.Equal(t, "JBSWY3DP", data["totp"].(map[string]any)["secret"])
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("Second factor", func(t *testing.T) {
		r, m, _ := newTestServer(t)
		m.On("Login", mock.Anything, "sess-1", usecase.LoginInput{Identifier: "ana@example.com", Password: "secret1"}).
			Return(&usecase.LoginOutput{Result: entity.AuthSecondFactorRequired, UserID: 7}, nil)

		rec, body := do(t, r, http.MethodPost, "/api/v1/auth/login", `{"identifier":"ana@example.com","password":"secret1"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Please enter your 2FA code", body["message"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "second_factor_required", data["result"])
		assert.NotContains(t, data, "access_token")
	})

	t.Run("Invalid code", func(t *testing.T) {
		r, m, _ := newTestServer(t)
		m.On("Login2FA", mock.Anything, "sess-1", usecase.Login2FAInput{Code: "000000"}).
			Return(nil, goerror.NewBusiness("Invalid or expired code", goerror.CodeUnauthorized))

		rec, _ := do(t, r, http.MethodPost, "/api/v1/auth/login/2fa", `{"code":"000000"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCheckEmailEndpoint(t *testing.T) {
	r, m, _ := newTestServer(t)
	m.On("CheckEmail", mock.Anything, usecase.CheckEmailInput{Email: "ana@example.com"}).
		Return(&usecase.CheckEmailOutput{Exists: true}, nil)

	rec, body := do(t, r, http.MethodGet, "/api/v1/auth/check-email?email=ana@example.com", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email already registered", body["message"])
}

func TestProfileEndpoint(t *testing.T) {
	t.Run("Requires bearer token", func(t *testing.T) {
		r, m, _ := newTestServer(t)

		rec, _ := do(t, r, http.MethodGet, "/api/v1/members/me", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		m.AssertNotCalled(t, "Profile", mock.Anything)
	})

	t.Run("With token", func(t *testing.T) {
		r, m, tokens := newTestServer(t)
		token, err := tokens.Generate(42, "ana@example.com")
		require.NoError(t, err)
		m.On("Profile", mock.MatchedBy(func(ctx context.Context) bool {
			clm := jwt.GetAuth(ctx)
			return clm != nil && clm.MemberID == 42
		})).Return(&entity.User{ID: 42, Email: "ana@example.com"}, nil)

		rec, body := do(t, r, http.MethodGet, "/api/v1/members/me", "", "Authorization", "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", body["data"].(map[string]any)["id"])
	})
}
