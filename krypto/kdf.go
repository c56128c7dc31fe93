package krypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLen is the salt size written at the head of every container.
	SaltLen = 16
	// KeyLen is the derived key size, matching the AEAD key size.
	KeyLen = 32
	// Iterations is the fixed PBKDF2-HMAC-SHA256 work factor.
	Iterations = 100_000
)

// DeriveKey stretches passphrase and salt into a KeyLen-byte key using
// PBKDF2-HMAC-SHA256 with a fixed iteration count. An empty passphrase is
// accepted; rejecting it is a caller policy.
func DeriveKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, Iterations, KeyLen, sha256.New)
}

// NewRandomSalt returns SaltLen bytes from the system CSPRNG.
func NewRandomSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}
