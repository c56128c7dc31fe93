package service

import (
	"errors"

	"github.com/Hussein-Mazeh/pwvault/internal/security"
	"github.com/Hussein-Mazeh/pwvault/internal/vault"
)

var (
	// ErrLocked is returned by any Session call after Lock.
	ErrLocked = errors.New("vault is locked")
	// ErrNoSuchEntry is returned for an out-of-range entry index.
	ErrNoSuchEntry = errors.New("no such entry")
)

// State is the lock state of a Session.
type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Session is an open vault: its decrypted entries and the passphrase needed
// to save them back. It moves from Unlocked to Locked exactly once.
type Session struct {
	svc     *Service
	name    string
	pass    security.Secret
	entries vault.Collection
	state   State
	dirty   bool
}

func newSession(svc *Service, name string, pass security.Secret, entries vault.Collection) *Session {
	return &Session{svc: svc, name: name, pass: pass, entries: entries, state: Unlocked}
}

// Name is the vault name.
func (s *Session) Name() string { return s.name }

// State reports whether the session is still usable.
func (s *Session) State() State { return s.state }

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// Entries returns a copy of the current entries.
func (s *Session) Entries() (vault.Collection, error) {
	if s.state != Unlocked {
		return nil, ErrLocked
	}
	return s.entries.Clone(), nil
}

// Add appends r.
func (s *Session) Add(r vault.Record) error {
	if s.state != Unlocked {
		return ErrLocked
	}
	s.entries = append(s.entries, r)
	s.dirty = true
	return nil
}

// Update replaces the entry at index i.
func (s *Session) Update(i int, r vault.Record) error {
	if s.state != Unlocked {
		return ErrLocked
	}
	if i < 0 || i >= len(s.entries) {
		return ErrNoSuchEntry
	}
	s.entries[i] = r
	s.dirty = true
	return nil
}

// Delete removes the entry at index i, keeping the order of the rest.
func (s *Session) Delete(i int) error {
	if s.state != Unlocked {
		return ErrLocked
	}
	if i < 0 || i >= len(s.entries) {
		return ErrNoSuchEntry
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.dirty = true
	return nil
}

// Save writes the entries back under the passphrase the session was opened with.
func (s *Session) Save() error {
	if s.state != Unlocked {
		return ErrLocked
	}
	if err := s.svc.save(s.name, s.pass, s.entries); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Lock wipes the passphrase and entry passwords and makes the session unusable.
// Unsaved changes are discarded.
func (s *Session) Lock() {
	if s.state == Locked {
		return
	}
	s.pass.Zero()
	s.pass = nil
	for i := range s.entries {
		s.entries[i] = vault.Record{}
	}
	s.entries = nil
	s.state = Locked
	s.dirty = false
}
