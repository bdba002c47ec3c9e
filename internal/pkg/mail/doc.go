// Package mail sends transactional email (OTP codes, welcome messages).
package mail
