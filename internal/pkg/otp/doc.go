// Package otp generates and checks one-time passcodes.
//
// TOTP covers authenticator-app codes (RFC 6238) and their enrollment
// material. Code covers the short numeric codes sent by email or SMS.
package otp
