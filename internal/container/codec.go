// Package container implements the on-disk encrypted container:
//
//	salt[16] ‖ nonce[12] ‖ ciphertext ‖ tag[16]
//
// The key is derived from the passphrase and the stored salt on every call. A
// fresh salt is drawn on every Seal, so each write uses a distinct key.
package container

import (
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/pwvault/internal/security"
	"github.com/Hussein-Mazeh/pwvault/krypto"
)

// MinSize is the smallest well-formed container: an empty plaintext sealed.
const MinSize = krypto.SaltLen + krypto.NonceLen + krypto.TagLen

// Header describes the fixed-size fields of a container without decrypting it.
type Header struct {
	Salt      []byte
	Nonce     []byte
	SealedLen int
}

// Inspect splits raw into its fields. It does not authenticate anything.
func Inspect(raw []byte) (Header, error) {
	if len(raw) < MinSize {
		return Header{}, ErrMalformedContainer
	}
	return Header{
		Salt:      raw[:krypto.SaltLen],
		Nonce:     raw[krypto.SaltLen : krypto.SaltLen+krypto.NonceLen],
		SealedLen: len(raw) - krypto.SaltLen - krypto.NonceLen,
	}, nil
}

// Seal encrypts plaintext under a key derived from passphrase and a new
// random salt, returning the packed container.
func Seal(plaintext []byte, passphrase security.Secret) ([]byte, error) {
	salt, err := krypto.NewRandomSalt()
	if err != nil {
		return nil, err
	}

	var nonce, sealed []byte
	err = krypto.WithLockedKey(krypto.DeriveKey(passphrase, salt), func(key []byte) error {
		var serr error
		nonce, sealed, serr = krypto.Seal(key, plaintext)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("seal container: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open reverses Seal. Short input yields ErrMalformedContainer and a failed
// authentication yields ErrWrongPassphraseOrCorrupted; no partial plaintext is
// ever returned.
func Open(raw []byte, passphrase security.Secret) ([]byte, error) {
	hdr, err := Inspect(raw)
	if err != nil {
		return nil, err
	}
	sealed := raw[krypto.SaltLen+krypto.NonceLen:]

	var plaintext []byte
	err = krypto.WithLockedKey(krypto.DeriveKey(passphrase, hdr.Salt), func(key []byte) error {
		var oerr error
		plaintext, oerr = krypto.Open(key, hdr.Nonce, sealed)
		return oerr
	})
	if err != nil {
		if errors.Is(err, krypto.ErrAuthFailure) {
			return nil, ErrWrongPassphraseOrCorrupted
		}
		return nil, fmt.Errorf("open container: %w", err)
	}
	return plaintext, nil
}
