package container

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/pwvault/internal/security"
	"github.com/Hussein-Mazeh/pwvault/krypto"
)

// Magic markers prefixed to the plaintext before sealing.
const (
	VaultMagic    = "PWVAULT1"
	RegistryMagic = "PWREG1"
)

// Encode serialises payload as JSON behind magic and seals the result.
func Encode(magic string, payload any, passphrase security.Secret) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	envelope := make([]byte, 0, len(magic)+len(body))
	envelope = append(envelope, magic...)
	envelope = append(envelope, body...)
	krypto.Zero(body)
	defer krypto.Zero(envelope)

	return Seal(envelope, passphrase)
}

// Decode opens raw, checks the magic prefix and unmarshals the remainder into out.
func Decode(raw []byte, magic string, passphrase security.Secret, out any) error {
	envelope, err := Open(raw, passphrase)
	if err != nil {
		return err
	}
	defer krypto.Zero(envelope)

	if !bytes.HasPrefix(envelope, []byte(magic)) {
		return ErrInvalidContainer
	}
	if err := json.Unmarshal(envelope[len(magic):], out); err != nil {
		// The decoder's message can quote plaintext, so only the offset is kept.
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("%w (offset %d)", ErrCorruptPayload, syntaxErr.Offset)
		}
		return ErrCorruptPayload
	}
	return nil
}
