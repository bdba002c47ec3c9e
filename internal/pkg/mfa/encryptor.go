// Package mfa seals second factor secrets at rest.
package mfa

import "encoding/base64"

// Encryptor seals and opens secrets bound to a Scope.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider returns the 32 byte AES key for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}

// SealString encrypts s and returns it base64 encoded for a text column.
func SealString(e Encryptor, s string, scope Scope) (string, error) {
	ct, err := e.Encrypt([]byte(s), scope)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// OpenString reverses SealString.
func OpenString(e Encryptor, sealed string, scope Scope) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrDecryptFailed
	}
	pt, err := e.Decrypt(ct, scope)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
