package mfa

import (
	"crypto/sha256"
	"fmt"
)

type Purpose string

const PurposeOTPSeed Purpose = "otp_seed"

// Scope is authenticated alongside the ciphertext, so a secret sealed for
// one member cannot be opened as another's.
type Scope struct {
	UserID  int64
	Purpose Purpose
}

func (s Scope) aad() []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "uid=%d\npurpose=%s\n", s.UserID, s.Purpose))
	return sum[:]
}
