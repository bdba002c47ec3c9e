package entity

import "time"

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// TOTPSecret holds the sealed base32 secret of a member's authenticator.
type TOTPSecret struct {
	UserID       int64
	SealedSecret string
	Enabled      bool
	CreatedAt    time.Time
}

// TOTPEnrollment is shown to the member once so an authenticator app can
// be configured.
type TOTPEnrollment struct {
	Secret    string
	URI       string
	QRCodeURI string
}

// AuthResult tells the client whether a login is complete.
type AuthResult string

const (
	AuthSessionEstablished   AuthResult = "session_established"
	AuthSecondFactorRequired AuthResult = "second_factor_required"
)
