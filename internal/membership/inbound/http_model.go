package inbound

import (
	"net/http"
	"strconv"
	"time"
)

type RegisterStartRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type RegisterStartResponse struct {
	Email string `json:"email"`
	State string `json:"state"`
}

func (RegisterStartResponse) Message() string {
	return "Verification code sent. Please check your email."
}

type RegisterResendResponse struct{}

func (RegisterResendResponse) Message() string { return "OTP resent successfully" }

type RegisterVerifyEmailRequest struct {
	Code string `json:"code"`
}

type RegisterVerifyEmailResponse struct {
	State string `json:"state"`
}

func (RegisterVerifyEmailResponse) Message() string {
	return "Email verified! Please verify your phone."
}

type PhoneSendOTPRequest struct {
	Phone string `json:"phone"`
}

type PhoneSendOTPResponse struct {
	Phone string `json:"phone"`
}

func (r PhoneSendOTPResponse) Message() string { return "OTP sent to " + r.Phone }

type PhoneVerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type PhoneVerifyOTPResponse struct {
	Phone string `json:"phone"`
	State string `json:"state"`
}

func (PhoneVerifyOTPResponse) Message() string { return "Phone verified successfully" }

type RegisterFinalizeRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type TOTPEnrollment struct {
	Secret    string `json:"secret"`
	URI       string `json:"uri"`
	QRCodeURI string `json:"qr_code"`
}

type RegisterFinalizeResponse struct {
	Member     Member         `json:"member"`
	Enrollment TOTPEnrollment `json:"totp"`
}

func (RegisterFinalizeResponse) Message() string { return "Registration successful! Setting up 2FA..." }

func (RegisterFinalizeResponse) StatusCode() int { return http.StatusCreated }

type CheckEmailResponse struct {
	Exists    bool `json:"exists"`
	Available bool `json:"available"`
}

func (r CheckEmailResponse) Message() string {
	if r.Exists {
		return "Email already registered"
	}
	return "Email available"
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Result      string `json:"result"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token,omitempty"`
}

func (r LoginResponse) Message() string {
	if r.AccessToken == "" {
		return "Please enter your 2FA code"
	}
	return "Login successful"
}

type Login2FARequest struct {
	Code string `json:"code"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string { return "Logged out" }

type SessionStatusResponse struct {
	RegistrationState   string `json:"registration_state"`
	PendingLogin        bool   `json:"pending_login"`
	Authenticated       bool   `json:"authenticated"`
	AuthenticatedUserID string `json:"authenticated_user_id,omitempty"`
	TOTPSetupPending    bool   `json:"totp_setup_pending"`
}

type TOTPSetupRequest struct {
	Contact string `json:"contact"`
}

type TOTPSetupResponse struct {
	Contact    string         `json:"contact"`
	Enrollment TOTPEnrollment `json:"totp"`
}

type TOTPSetupCompleteResponse struct{}

func (TOTPSetupCompleteResponse) Message() string { return "2FA setup complete! Please login." }

type Member struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
