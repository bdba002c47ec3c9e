package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// sealed layout: uint16 version | 12 byte nonce | ciphertext+tag
const (
	sealVersion uint16 = 1
	nonceSize          = 12
	keySize            = 32
	headerSize         = 2 + nonceSize
)

var (
	ErrPlaintextEmpty     = errors.New("mfa: plaintext is empty")
	ErrInvalidKeyLength   = errors.New("mfa: key must be 32 bytes")
	ErrCiphertextTooShort = errors.New("mfa: ciphertext too short")
	ErrUnsupportedVersion = errors.New("mfa: unsupported ciphertext version")
	ErrDecryptFailed      = errors.New("mfa: decrypt failed")
	ErrMissingStaticKey   = errors.New("mfa: missing static key")
)

// AESGCM is an AES-256-GCM Encryptor.
type AESGCM struct {
	keys KeyProvider
}

func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

func (e *AESGCM) aead(scope Scope) (cipher.AEAD, error) {
	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("mfa: key provider: %w", err)
	}
	if len(key) != keySize {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (e *AESGCM) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out, sealVersion)
	if _, err := rand.Read(out[2:headerSize]); err != nil {
		return nil, fmt.Errorf("mfa: nonce: %w", err)
	}

	return gcm.Seal(out, out[2:headerSize], plaintext, scope.aad()), nil
}

func (e *AESGCM) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerSize {
		return nil, ErrCiphertextTooShort
	}
	if binary.BigEndian.Uint16(ciphertext) != sealVersion {
		return nil, ErrUnsupportedVersion
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, ciphertext[2:headerSize], ciphertext[headerSize:], scope.aad())
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

// StaticKeyProvider uses one key for every scope.
type StaticKeyProvider struct {
	KeyBytes []byte
}

func (p StaticKeyProvider) Key(Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}
	return append([]byte(nil), p.KeyBytes...), nil
}
