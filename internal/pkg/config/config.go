// Package config exposes typed access to the application configuration.
package config

import (
	"io"
	"time"
)

// Config reads configuration values by dotted key (for example
// "modules.membership.otp.phone.max_attempts").
//
// Missing keys resolve to the zero value of the requested type.
type Config interface {
	io.Closer

	// GetSecond reads an integer value and interprets it as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value and interprets it as minutes.
	GetMinute(key string) time.Duration
	// GetHour reads an integer value and interprets it as hours.
	GetHour(key string) time.Duration

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits a comma separated value, trimming blanks and dropping
	// empty elements.
	GetArray(key string) []string
}
