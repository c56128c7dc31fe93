// Package vault loads and saves credential collections, one encrypted
// container file per named vault.
package vault

import (
	"errors"
	"fmt"
	"os"

	clog "github.com/charmbracelet/log"

	"github.com/Hussein-Mazeh/pwvault/internal/container"
	"github.com/Hussein-Mazeh/pwvault/internal/logging"
	"github.com/Hussein-Mazeh/pwvault/internal/security"
	"github.com/Hussein-Mazeh/pwvault/store"
)

// ErrVaultNotFound indicates no container file exists for the vault name.
var ErrVaultNotFound = errors.New("vault: vault not found")

// Store maps vault names to container files under a base directory.
type Store struct {
	disk  *store.Disk
	paths store.Paths
	log   *clog.Logger
}

// NewStore returns a Store rooted at paths.Dir.
func NewStore(disk *store.Disk, paths store.Paths, logger *clog.Logger) *Store {
	return &Store{disk: disk, paths: paths, log: logging.OrDiscard(logger)}
}

// Path returns the container file backing name.
func (s *Store) Path(name string) string {
	return s.paths.VaultPath(name)
}

// Exists reports whether a container file exists for name.
func (s *Store) Exists(name string) (bool, error) {
	return s.disk.Exists(s.Path(name))
}

// Load reads and decrypts the collection stored under name.
//
// Errors: ErrVaultNotFound when the file is absent; the container sentinels
// (ErrMalformedContainer, ErrWrongPassphraseOrCorrupted, ErrInvalidContainer,
// ErrCorruptPayload) when decoding fails; wrapped OS errors otherwise.
func (s *Store) Load(name string, passphrase security.Secret) (Collection, error) {
	raw, err := s.read(name)
	if err != nil {
		return nil, err
	}

	var entries Collection
	if err := container.Decode(raw, container.VaultMagic, passphrase, &entries); err != nil {
		s.log.Debug("vault decode failed", "vault", name, "err", err)
		return nil, err
	}
	if entries == nil {
		entries = Collection{}
	}

	s.log.Debug("vault loaded", "vault", name, "entries", len(entries))
	return entries, nil
}

// Inspect parses the container header of name without decrypting it.
func (s *Store) Inspect(name string) (container.Header, error) {
	raw, err := s.read(name)
	if err != nil {
		return container.Header{}, err
	}
	return container.Inspect(raw)
}

func (s *Store) read(name string) ([]byte, error) {
	raw, err := s.disk.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrVaultNotFound
		}
		return nil, fmt.Errorf("read vault %q: %w", name, err)
	}
	return raw, nil
}

// Save encrypts entries under a fresh salt and replaces the vault file.
// There is no merge: the last writer wins.
func (s *Store) Save(name string, passphrase security.Secret, entries Collection) error {
	if entries == nil {
		entries = Collection{}
	}

	raw, err := container.Encode(container.VaultMagic, entries, passphrase)
	if err != nil {
		return fmt.Errorf("encode vault %q: %w", name, err)
	}

	if err := s.disk.WriteAtomic(s.Path(name), raw); err != nil {
		return fmt.Errorf("save vault %q: %w", name, err)
	}

	s.log.Debug("vault saved", "vault", name, "entries", len(entries))
	return nil
}

// Delete removes the container file for name. A missing file is not an error.
func (s *Store) Delete(name string) error {
	if err := s.disk.Remove(s.Path(name)); err != nil {
		return fmt.Errorf("delete vault %q: %w", name, err)
	}
	return nil
}
