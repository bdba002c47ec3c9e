package inbound

import (
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/membership/usecase"
	"github.com/shandysiswandi/sportsclub/internal/pkg/router"
)

// HTTPEndpoint exposes the registration, login and session workflows. The
// client is identified by the session cookie set by the router.
type HTTPEndpoint struct {
	uc uc
}

// RegisterStart begins a registration and emails a verification code.
// @Summary Start registration
// @Description Validates the fields in a fixed order, checks uniqueness and sends an email OTP.
// @Tags Membership, Registration
// @Accept json
// @Produce json
// @Param request body RegisterStartRequest true "Registration payload"
// @Success 200 {object} router.successResponse{data=RegisterStartResponse} "Verification code sent"
// @Failure 409 {object} router.errorResponse "Email or phone already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Failed to send verification email"
// @Router /api/v1/auth/register [post]
func (h *HTTPEndpoint) RegisterStart(r *router.Request) (any, error) {
	var req RegisterStartRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterStart(r.Context(), r.SessionID(), usecase.RegisterStartInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}

	return RegisterStartResponse{Email: resp.Email, State: string(resp.State)}, nil
}

// RegisterResend sends a new email code for the pending registration.
// @Summary Resend email code
// @Tags Membership, Registration
// @Produce json
// @Success 200 {object} router.successResponse "OTP resent"
// @Failure 404 {object} router.errorResponse "Registration session expired"
// @Failure 409 {object} router.errorResponse "Email already verified"
// @Router /api/v1/auth/register/resend [post]
func (h *HTTPEndpoint) RegisterResend(r *router.Request) (any, error) {
	if err := h.uc.RegisterResend(r.Context(), r.SessionID()); err != nil {
		return nil, err
	}
	return RegisterResendResponse{}, nil
}

// RegisterVerifyEmail proves ownership of the email being registered.
// @Summary Verify email code
// @Tags Membership, Registration
// @Accept json
// @Produce json
// @Param request body RegisterVerifyEmailRequest true "Email code"
// @Success 200 {object} router.successResponse{data=RegisterVerifyEmailResponse} "Email verified"
// @Failure 400 {object} router.errorResponse "Invalid OTP"
// @Failure 404 {object} router.errorResponse "OTP or registration not found"
// @Failure 410 {object} router.errorResponse "OTP has expired"
// @Router /api/v1/auth/register/verify-email [post]
func (h *HTTPEndpoint) RegisterVerifyEmail(r *router.Request) (any, error) {
	var req RegisterVerifyEmailRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterVerifyEmail(r.Context(), r.SessionID(), usecase.RegisterVerifyEmailInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return RegisterVerifyEmailResponse{State: string(resp.State)}, nil
}

// PhoneSendOTP texts a code to the phone being registered.
// @Summary Send phone code
// @Tags Membership, Registration
// @Accept json
// @Produce json
// @Param request body PhoneSendOTPRequest true "Phone number"
// @Success 200 {object} router.successResponse{data=PhoneSendOTPResponse} "OTP sent"
// @Failure 429 {object} router.errorResponse "Too many OTP requests"
// @Failure 502 {object} router.errorResponse "Failed to send OTP"
// @Router /api/v1/auth/register/phone/send [post]
func (h *HTTPEndpoint) PhoneSendOTP(r *router.Request) (any, error) {
	var req PhoneSendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PhoneSendOTP(r.Context(), r.SessionID(), usecase.PhoneSendOTPInput{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	return PhoneSendOTPResponse{Phone: resp.Phone}, nil
}

// PhoneVerifyOTP proves ownership of the phone being registered.
// @Summary Verify phone code
// @Tags Membership, Registration
// @Accept json
// @Produce json
// @Param request body PhoneVerifyOTPRequest true "Phone and code"
// @Success 200 {object} router.successResponse{data=PhoneVerifyOTPResponse} "Phone verified"
// @Failure 400 {object} router.errorResponse "Invalid OTP"
// @Failure 410 {object} router.errorResponse "OTP has expired"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Router /api/v1/auth/register/phone/verify [post]
func (h *HTTPEndpoint) PhoneVerifyOTP(r *router.Request) (any, error) {
	var req PhoneVerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PhoneVerifyOTP(r.Context(), r.SessionID(), usecase.PhoneVerifyOTPInput{Phone: req.Phone, Code: req.Code})
	if err != nil {
		return nil, err
	}

	return PhoneVerifyOTPResponse{Phone: resp.Phone, State: string(resp.State)}, nil
}

// RegisterFinalize creates the member and returns the authenticator enrollment.
// @Summary Complete registration
// @Tags Membership, Registration
// @Accept json
// @Produce json
// @Param request body RegisterFinalizeRequest true "Password confirmation"
// @Success 201 {object} router.successResponse{data=RegisterFinalizeResponse} "Member created"
// @Failure 404 {object} router.errorResponse "Previous step missing"
// @Failure 409 {object} router.errorResponse "Email or phone already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/register/complete [post]
func (h *HTTPEndpoint) RegisterFinalize(r *router.Request) (any, error) {
	var req RegisterFinalizeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterFinalize(r.Context(), r.SessionID(), usecase.RegisterFinalizeInput{
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}

	return RegisterFinalizeResponse{
		Member:     toMember(resp.User),
		Enrollment: toEnrollment(resp.Enrollment),
	}, nil
}

// CheckEmail reports whether an email can still be registered.
// @Summary Check email availability
// @Tags Membership, Registration
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} router.successResponse{data=CheckEmailResponse} "Availability"
// @Failure 422 {object} router.errorResponse "Invalid email format"
// @Router /api/v1/auth/check-email [get]
func (h *HTTPEndpoint) CheckEmail(r *router.Request) (any, error) {
	resp, err := h.uc.CheckEmail(r.Context(), usecase.CheckEmailInput{Email: r.GetQuery("email")})
	if err != nil {
		return nil, err
	}

	return CheckEmailResponse{Exists: resp.Exists, Available: resp.Available}, nil
}

// Login checks email or phone plus password.
// @Summary Login
// @Description Returns an access token, or asks for the authenticator code when 2FA is enabled.
// @Tags Membership, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Login result"
// @Failure 401 {object} router.errorResponse "Invalid email/phone or password"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), r.SessionID(), usecase.LoginInput{Identifier: req.Identifier, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return toLoginResponse(resp), nil
}

// Login2FA completes a pending login.
// @Summary Complete 2FA login
// @Tags Membership, Authentication
// @Accept json
// @Produce json
// @Param request body Login2FARequest true "Authenticator code"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Login successful"
// @Failure 401 {object} router.errorResponse "Invalid or expired code"
// @Failure 404 {object} router.errorResponse "No pending login"
// @Router /api/v1/auth/login/2fa [post]
func (h *HTTPEndpoint) Login2FA(r *router.Request) (any, error) {
	var req Login2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login2FA(r.Context(), r.SessionID(), usecase.Login2FAInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return toLoginResponse(resp), nil
}

// Logout destroys the server side session.
// @Summary Logout
// @Tags Membership, Authentication
// @Produce json
// @Success 200 {object} router.successResponse "Logged out"
// @Router /api/v1/auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), r.SessionID()); err != nil {
		return nil, err
	}
	return LogoutResponse{}, nil
}

// SessionStatus reports the step the client is at.
// @Summary Session status
// @Tags Membership, Authentication
// @Produce json
// @Success 200 {object} router.successResponse{data=SessionStatusResponse} "Session status"
// @Router /api/v1/auth/session [get]
func (h *HTTPEndpoint) SessionStatus(r *router.Request) (any, error) {
	resp, err := h.uc.SessionStatus(r.Context(), r.SessionID())
	if err != nil {
		return nil, err
	}

	return SessionStatusResponse{
		RegistrationState:   string(resp.RegistrationState),
		PendingLogin:        resp.PendingLogin,
		Authenticated:       resp.Authenticated,
		AuthenticatedUserID: formatID(resp.AuthenticatedUserID),
		TOTPSetupPending:    resp.TOTPSetupPending,
	}, nil
}

// TOTPSetup shows the authenticator enrollment for the member.
// @Summary Show authenticator enrollment
// @Tags Membership, Authenticator
// @Accept json
// @Produce json
// @Param request body TOTPSetupRequest true "Email or phone"
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse} "Enrollment"
// @Failure 401 {object} router.errorResponse "Session does not own the member"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/v1/auth/totp/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	var req TOTPSetupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.TOTPSetup(r.Context(), r.SessionID(), usecase.TOTPSetupInput{Contact: req.Contact})
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{Contact: resp.Contact, Enrollment: toEnrollment(resp.Enrollment)}, nil
}

// TOTPSetupComplete acknowledges the enrollment.
// @Summary Complete authenticator setup
// @Tags Membership, Authenticator
// @Produce json
// @Success 200 {object} router.successResponse "Setup complete"
// @Router /api/v1/auth/totp/setup/complete [post]
func (h *HTTPEndpoint) TOTPSetupComplete(r *router.Request) (any, error) {
	if err := h.uc.TOTPSetupComplete(r.Context(), r.SessionID()); err != nil {
		return nil, err
	}
	return TOTPSetupCompleteResponse{}, nil
}

// Profile returns the member behind the bearer token.
// @Summary Current member
// @Tags Membership
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=Member} "Member"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/members/me [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	user, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}
	return toMember(*user), nil
}

func toMember(u entity.User) Member {
	return Member{
		ID:        formatID(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

func toEnrollment(e entity.TOTPEnrollment) TOTPEnrollment {
	return TOTPEnrollment{Secret: e.Secret, URI: e.URI, QRCodeURI: e.QRCodeURI}
}

func toLoginResponse(out *usecase.LoginOutput) LoginResponse {
	return LoginResponse{
		Result:      string(out.Result),
		UserID:      formatID(out.UserID),
		AccessToken: out.AccessToken,
	}
}
