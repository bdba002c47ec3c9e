package db

import "github.com/shandysiswandi/sportsclub/internal/membership/entity"

const (
	queryUserColumns = `id, first_name, last_name, email, phone, password_hash, created_at`

	queryGetUserByEmail = `SELECT ` + queryUserColumns + ` FROM users WHERE email = $1`
	queryGetUserByPhone = `SELECT ` + queryUserColumns + ` FROM users WHERE phone = $1`
	queryGetUserByID    = `SELECT ` + queryUserColumns + ` FROM users WHERE id = $1`

	queryCreateUser = `INSERT INTO users (id, first_name, last_name, email, phone, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryGetTOTPSecret    = `SELECT user_id, secret, enabled, created_at FROM totp_secrets WHERE user_id = $1`
	queryUpsertTOTPSecret = `INSERT INTO totp_secrets (user_id, secret, enabled, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET secret = EXCLUDED.secret, enabled = EXCLUDED.enabled`

	queryCreateIssuance = `INSERT INTO otp_issuances (channel, identifier, issued_at) VALUES ($1, $2, $3)`
	queryCountIssuances = `SELECT COUNT(*) FROM otp_issuances WHERE channel = $1 AND identifier = $2 AND issued_at > $3`
)

type otpQueries struct {
	upsert    string
	get       string
	delete    string
	increment string
}

func newOTPQueries(table, column string) otpQueries {
	return otpQueries{
		upsert: `INSERT INTO ` + table + ` (` + column + `, code, expires_at, attempts, created_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (` + column + `) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at,
attempts = 0, created_at = EXCLUDED.created_at`,
		get:       `SELECT ` + column + `, code, expires_at, attempts, created_at FROM ` + table + ` WHERE ` + column + ` = $1`,
		delete:    `DELETE FROM ` + table + ` WHERE ` + column + ` = $1`,
		increment: `UPDATE ` + table + ` SET attempts = attempts + 1 WHERE ` + column + ` = $1 RETURNING attempts`,
	}
}

var (
	emailOTPQueries = newOTPQueries("email_otp", "email")
	phoneOTPQueries = newOTPQueries("phone_otp", "phone")
)

func otpQueriesFor(ch entity.Channel) otpQueries {
	if ch == entity.ChannelPhone {
		return phoneOTPQueries
	}
	return emailOTPQueries
}
