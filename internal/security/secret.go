package security

import (
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// Secret holds a passphrase or other sensitive bytes. Every formatting and
// encoding path renders it as a placeholder, so it cannot leak through a log
// line or a wrapped error message.
type Secret []byte

// FromString copies a passphrase typed by the user into a Secret.
func FromString(s string) Secret { return Secret([]byte(s)) }

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so %v, %#v, %q and %x are redacted too.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts secrets in JSON.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoders.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Zero overwrites the secret in place.
func (s Secret) Zero() {
	for i := range s {
		s[i] = 0
	}
}
