package container

import "errors"

var (
	// ErrMalformedContainer means the input is too short to hold salt, nonce and tag.
	ErrMalformedContainer = errors.New("container: data too short to be a container")
	// ErrWrongPassphraseOrCorrupted means AEAD authentication failed. The two
	// causes cannot be told apart.
	ErrWrongPassphraseOrCorrupted = errors.New("container: wrong passphrase or corrupted data")
	// ErrInvalidContainer means decryption succeeded but the magic marker is absent.
	ErrInvalidContainer = errors.New("container: magic marker mismatch")
	// ErrCorruptPayload means the authenticated payload could not be deserialised,
	// which points at a format or version mismatch rather than a passphrase problem.
	ErrCorruptPayload = errors.New("container: payload could not be decoded")
)
