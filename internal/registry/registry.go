// Package registry keeps the list of known vault names and when each was
// last opened, persisted as its own encrypted container.
//
// The registry container is sealed under AppKey, a constant compiled into the
// binary. That only obfuscates the file: anyone holding the binary can read
// the vault names and access times. Vault contents are unaffected, they are
// sealed under the user's passphrase.
package registry

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/Hussein-Mazeh/pwvault/internal/container"
	"github.com/Hussein-Mazeh/pwvault/internal/logging"
	"github.com/Hussein-Mazeh/pwvault/internal/security"
	"github.com/Hussein-Mazeh/pwvault/store"
)

// AppKey is the static passphrase for the registry container.
const AppKey = "very-secure-hardcoded-key"

// ErrDuplicateName is returned when registering a name that is already known.
var ErrDuplicateName = errors.New("registry: vault name already registered")

// Identity is one known vault.
type Identity struct {
	Name         string    `json:"name"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Registry is the in-memory view of the registry file. Mutations are written
// to disk before they are applied in memory, so a failed write leaves both
// unchanged.
type Registry struct {
	mu    sync.Mutex
	disk  *store.Disk
	path  string
	log   *clog.Logger
	now   func() time.Time
	items []Identity
}

// Option customises Open.
type Option func(*Registry)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l *clog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// Open loads the registry at paths.RegistryPath(). A missing file is a first
// run and yields an empty registry. A file that exists but cannot be decoded
// is an error; it is never silently replaced.
func Open(disk *store.Disk, paths store.Paths, opts ...Option) (*Registry, error) {
	r := &Registry{
		disk: disk,
		path: paths.RegistryPath(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrDiscard(r.log)

	raw, err := disk.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.Debug("no registry yet", "path", r.path)
			return r, nil
		}
		return nil, fmt.Errorf("load registry: %w", err)
	}

	key := security.FromString(AppKey)
	defer key.Zero()

	if err := container.Decode(raw, container.RegistryMagic, key, &r.items); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", r.path, err)
	}
	return r, nil
}

// List returns a copy of the known vaults in registration order.
func (r *Registry) List() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// Lookup returns the identity registered under name.
func (r *Registry) Lookup(name string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(name)
	if i < 0 {
		return Identity{}, false
	}
	return r.items[i], true
}

// Register appends name with the current time as its last access.
// Names match case-sensitively.
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index(name) >= 0 {
		return ErrDuplicateName
	}
	next := append(slices.Clone(r.items), Identity{Name: name, LastAccessed: r.stamp()})
	return r.commit(next, "register", name)
}

// Touch sets the last access time of name to now. Unknown names are ignored.
func (r *Registry) Touch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(name)
	if i < 0 {
		return nil
	}
	next := slices.Clone(r.items)
	next[i].LastAccessed = r.stamp()
	return r.commit(next, "touch", name)
}

// Remove forgets name. The vault file itself is left alone; deleting it is a
// separate decision for the caller. Unknown names are ignored.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(name)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(r.items), i, i+1)
	return r.commit(next, "remove", name)
}

func (r *Registry) index(name string) int {
	return slices.IndexFunc(r.items, func(id Identity) bool { return id.Name == name })
}

// stamp drops the monotonic reading and sub-second noise so an identity
// compares equal after a round trip through JSON.
func (r *Registry) stamp() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

// commit persists next and only then swaps it in. Callers hold r.mu.
func (r *Registry) commit(next []Identity, op, name string) error {
	if err := r.persist(next); err != nil {
		r.log.Error("registry not updated", "op", op, "vault", name, "err", err)
		return err
	}
	r.items = next
	r.log.Debug("registry updated", "op", op, "vault", name, "count", len(next))
	return nil
}

func (r *Registry) persist(items []Identity) error {
	if items == nil {
		items = []Identity{}
	}

	key := security.FromString(AppKey)
	defer key.Zero()

	raw, err := container.Encode(container.RegistryMagic, items, key)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := r.disk.WriteAtomic(r.path, raw); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}
