package krypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// NonceLen is the ChaCha20-Poly1305 nonce size.
	NonceLen = chacha20poly1305.NonceSize
	// TagLen is the Poly1305 authentication tag size.
	TagLen = chacha20poly1305.Overhead
)

// ErrAuthFailure is returned by Open when the tag does not verify. A wrong key
// and a tampered ciphertext are indistinguishable here.
var ErrAuthFailure = errors.New("krypto: message authentication failed")

// Seal encrypts plaintext with ChaCha20-Poly1305 under a fresh random nonce.
// sealed is ciphertext followed by the 16-byte tag. No associated data is bound.
func Seal(key, plaintext []byte) (nonce, sealed []byte, err error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, nil, errors.New("chacha20-poly1305 requires a 32-byte key")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce = make([]byte, NonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed = aead.Seal(nil, nonce, plaintext, nil)
	return nonce, sealed, nil
}

// Open authenticates and decrypts sealed. It returns ErrAuthFailure, and no
// plaintext, when verification fails.
func Open(key, nonce, sealed []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("chacha20-poly1305 requires a 32-byte key")
	}
	if len(nonce) != NonceLen {
		return nil, errors.New("invalid nonce size")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailure
	}
	return plaintext, nil
}
