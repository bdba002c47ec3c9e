// Package sms sends text messages. The Twilio implementation talks to the
// Messages REST resource directly and retries transient failures.
package sms
