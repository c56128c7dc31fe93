package service

import (
	"errors"

	"github.com/Hussein-Mazeh/pwvault/auth"
	"github.com/Hussein-Mazeh/pwvault/internal/container"
	"github.com/Hussein-Mazeh/pwvault/internal/registry"
	"github.com/Hussein-Mazeh/pwvault/internal/vault"
)

// messages maps expected failures to what the user is told. An empty message
// means the error text is already fit to show.
var messages = []struct {
	err error
	msg string
}{
	{vault.ErrVaultNotFound, "No vault with that name exists. Create it first."},
	{container.ErrWrongPassphraseOrCorrupted, "Wrong password, or the vault file is corrupted."},
	{container.ErrInvalidContainer, "The vault file is corrupted or is not a vault."},
	{container.ErrCorruptPayload, "The vault decrypted but its contents could not be read; it may come from an incompatible version."},
	{container.ErrMalformedContainer, "The vault file is truncated or is not a vault."},
	{registry.ErrDuplicateName, "A vault with that name is already registered. Pick another name."},
	{ErrVaultExists, "A vault file with that name already exists. Use import to register it."},
	{auth.ErrInvalidName, ""},
	{auth.ErrEmptyPassphrase, "The password must not be empty."},
	{ErrLocked, "The vault is locked. Open it again."},
	{ErrNoSuchEntry, "There is no entry with that number."},
}

// Expected reports whether err is a failure the user can act on, as opposed
// to an I/O or programming error.
func Expected(err error) bool {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}

// Describe turns an engine error into the message shown to the user. It
// returns "" for nil and the error text for anything unexpected, so I/O
// failures keep their system reason.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			if m.msg == "" {
				return err.Error()
			}
			return m.msg
		}
	}
	return err.Error()
}
