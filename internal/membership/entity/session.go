package entity

import "time"

// RegistrationState is derived from the pending registration held by a
// session; it only moves forward.
type RegistrationState string

const (
	RegistrationNone          RegistrationState = ""
	RegistrationStarted       RegistrationState = "started"
	RegistrationEmailPending  RegistrationState = "email_pending"
	RegistrationEmailVerified RegistrationState = "email_verified"
	RegistrationPhoneVerified RegistrationState = "phone_verified"
	RegistrationFinalized     RegistrationState = "finalized"
)

// Session is the server side state of one client. Every field is
// independently optional.
type Session struct {
	PendingRegistration *PendingRegistration `json:"pending_registration,omitempty"`
	PendingLogin        *PendingLogin        `json:"pending_login,omitempty"`
	AuthenticatedUserID *int64               `json:"authenticated_user_id,omitempty"`
	TOTPSetup           *TOTPSetup           `json:"totp_setup,omitempty"`
}

// PendingRegistration keeps the submitted fields between steps. Password
// is plaintext and lives only in the session store.
type PendingRegistration struct {
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Password      string    `json:"password"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	StartedAt     time.Time `json:"started_at"`
}

type PendingLogin struct {
	Identifier string `json:"identifier"`
	UserID     int64  `json:"user_id"`
}

// TOTPSetup marks that enrollment material was shown and is awaiting the
// member's confirmation.
type TOTPSetup struct {
	UserID  int64  `json:"user_id"`
	Contact string `json:"contact"`
}

func (s *Session) RegistrationState() RegistrationState {
	p := s.PendingRegistration
	switch {
	case p == nil && s.TOTPSetup != nil:
		return RegistrationFinalized
	case p == nil:
		return RegistrationNone
	case p.PhoneVerified:
		return RegistrationPhoneVerified
	case p.EmailVerified:
		return RegistrationEmailVerified
	default:
		return RegistrationEmailPending
	}
}

func (s *Session) SetAuthenticated(userID int64) {
	s.PendingLogin = nil
	s.AuthenticatedUserID = &userID
}

// IsEmpty reports whether nothing is left worth persisting.
func (s *Session) IsEmpty() bool {
	return s.PendingRegistration == nil && s.PendingLogin == nil &&
		s.AuthenticatedUserID == nil && s.TOTPSetup == nil
}
