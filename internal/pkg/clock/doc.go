// Package clock provides a tiny time abstraction.
//
// Business logic depends on Clocker instead of calling time.Now so OTP
// expiry and TOTP windows can be tested with a Manual clock.
package clock
