package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"math/big"
	"strconv"
)

var base32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

const (
	codeMin = 100000
	codeMax = 999999
)

// Code generates the numeric one-time codes sent over email and SMS.
type Code interface {
	// New returns a uniformly random code in [100000, 999999].
	New() (string, error)
}

// NumericCode reads from crypto/rand. Codes never start with a zero, so
// they always show six digits.
type NumericCode struct{}

func NewNumericCode() *NumericCode {
	return &NumericCode{}
}

func (NumericCode) New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// EqualCode compares two codes in constant time.
func EqualCode(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// IsSixDigits reports whether code is exactly six ASCII digits.
func IsSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
