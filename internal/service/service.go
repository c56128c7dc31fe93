// Package service is the surface the presentation layer talks to: list,
// register, open and save vaults, without touching files or crypto directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/Hussein-Mazeh/pwvault/auth"
	"github.com/Hussein-Mazeh/pwvault/internal/config"
	"github.com/Hussein-Mazeh/pwvault/internal/container"
	"github.com/Hussein-Mazeh/pwvault/internal/logging"
	"github.com/Hussein-Mazeh/pwvault/internal/registry"
	"github.com/Hussein-Mazeh/pwvault/internal/security"
	"github.com/Hussein-Mazeh/pwvault/internal/vault"
	"github.com/Hussein-Mazeh/pwvault/store"
)

// ErrVaultExists is returned when creating a vault whose file is already on
// disk, registered or not. Use ImportVault to adopt such a file.
var ErrVaultExists = errors.New("vault file already exists")

// Service exposes high-level vault operations for the CLI.
type Service struct {
	vaults   *vault.Store
	registry *registry.Registry
	breach   *auth.BreachChecker // nil unless breach checks are enabled
	minScore int
	log      *clog.Logger
}

type options struct {
	fs     afero.Fs
	logger *clog.Logger
	clock  func() time.Time
	breach *auth.BreachChecker
}

// Option customises New.
type Option func(*options)

// WithFs replaces the OS filesystem, mainly for tests.
func WithFs(fs afero.Fs) Option { return func(o *options) { o.fs = fs } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *clog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock overrides the registry's time source.
func WithClock(now func() time.Time) Option { return func(o *options) { o.clock = now } }

// WithBreachChecker overrides the HIBP client used when cfg.BreachCheck is set.
func WithBreachChecker(c *auth.BreachChecker) Option { return func(o *options) { o.breach = c } }

// New returns a service rooted at cfg.DataDir, loading the registry from it.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrDiscard(o.logger)

	disk := store.NewDisk(o.fs)
	paths := store.Paths{Dir: cfg.DataDir}

	regOpts := []registry.Option{registry.WithLogger(logger)}
	if o.clock != nil {
		regOpts = append(regOpts, registry.WithClock(o.clock))
	}
	reg, err := registry.Open(disk, paths, regOpts...)
	if err != nil {
		return nil, err
	}

	s := &Service{
		vaults:   vault.NewStore(disk, paths, logger),
		registry: reg,
		minScore: cfg.MinScore,
		log:      logger,
	}
	if cfg.BreachCheck {
		s.breach = o.breach
		if s.breach == nil {
			s.breach = auth.NewBreachChecker()
		}
	}
	return s, nil
}

// MinScore is the configured zxcvbn threshold for calling a passphrase weak.
func (s *Service) MinScore() int { return s.minScore }

// VaultPath returns the container file that backs name.
func (s *Service) VaultPath(name string) string { return s.vaults.Path(name) }

// ListVaults returns the known vaults in registration order.
func (s *Service) ListVaults() []registry.Identity {
	return s.registry.List()
}

func checkInputs(name, passphrase string) error {
	if err := auth.ValidateVaultName(name); err != nil {
		return err
	}
	if passphrase == "" {
		return auth.ErrEmptyPassphrase
	}
	return nil
}

// RegisterVault creates an empty vault sealed under passphrase and records it
// in the registry. The vault file is written first; if the registry update
// fails the new file is removed again.
func (s *Service) RegisterVault(name, passphrase string) error {
	if err := checkInputs(name, passphrase); err != nil {
		return err
	}
	if _, ok := s.registry.Lookup(name); ok {
		return registry.ErrDuplicateName
	}
	exists, err := s.vaults.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return ErrVaultExists
	}

	pass := security.FromString(passphrase)
	defer pass.Zero()

	if err := s.vaults.Save(name, pass, vault.Collection{}); err != nil {
		return err
	}
	if err := s.registry.Register(name); err != nil {
		if derr := s.vaults.Delete(name); derr != nil {
			s.log.Error("could not remove vault after failed registration", "vault", name, "err", derr)
		}
		return fmt.Errorf("register vault: %w", err)
	}

	s.log.Info("vault created", "vault", name)
	return nil
}

// ImportVault registers a vault file that exists on disk but is not in the
// registry, after proving passphrase opens it.
func (s *Service) ImportVault(name, passphrase string) error {
	if err := checkInputs(name, passphrase); err != nil {
		return err
	}
	if _, ok := s.registry.Lookup(name); ok {
		return registry.ErrDuplicateName
	}

	pass := security.FromString(passphrase)
	defer pass.Zero()

	entries, err := s.vaults.Load(name, pass)
	if err != nil {
		return err
	}
	if err := s.registry.Register(name); err != nil {
		return fmt.Errorf("register vault: %w", err)
	}

	s.log.Info("vault imported", "vault", name, "entries", len(entries))
	return nil
}

// OpenVault decrypts the vault and returns an unlocked session over its
// entries. A successful open refreshes the registry access time; failing to
// persist that is logged and does not fail the open.
func (s *Service) OpenVault(name, passphrase string) (*Session, error) {
	if err := checkInputs(name, passphrase); err != nil {
		return nil, err
	}

	pass := security.FromString(passphrase)
	entries, err := s.vaults.Load(name, pass)
	if err != nil {
		pass.Zero()
		return nil, err
	}

	if err := s.registry.Touch(name); err != nil {
		s.log.Warn("could not record vault access", "vault", name, "err", err)
	}

	s.log.Info("vault opened", "vault", name, "entries", len(entries))
	return newSession(s, name, pass, entries), nil
}

// SaveEntries replaces the vault contents with entries, sealed under
// passphrase with a fresh salt.
func (s *Service) SaveEntries(name, passphrase string, entries vault.Collection) error {
	if err := checkInputs(name, passphrase); err != nil {
		return err
	}

	pass := security.FromString(passphrase)
	defer pass.Zero()

	return s.save(name, pass, entries)
}

func (s *Service) save(name string, pass security.Secret, entries vault.Collection) error {
	if err := s.vaults.Save(name, pass, entries); err != nil {
		return err
	}
	s.log.Info("vault saved", "vault", name, "entries", len(entries))
	return nil
}

// InspectVault returns the container header of name without decrypting it.
func (s *Service) InspectVault(name string) (container.Header, error) {
	if err := auth.ValidateVaultName(name); err != nil {
		return container.Header{}, err
	}
	return s.vaults.Inspect(name)
}

// TouchVault marks name as accessed now.
func (s *Service) TouchVault(name string) error {
	return s.registry.Touch(name)
}

// RemoveVault forgets name. The vault file is only deleted when deleteFile is
// set, so a registry mistake can never destroy credentials.
func (s *Service) RemoveVault(name string, deleteFile bool) error {
	if err := auth.ValidateVaultName(name); err != nil {
		return err
	}
	if err := s.registry.Remove(name); err != nil {
		return fmt.Errorf("remove vault: %w", err)
	}
	if deleteFile {
		if err := s.vaults.Delete(name); err != nil {
			return err
		}
		s.log.Info("vault file deleted", "vault", name)
	}
	s.log.Info("vault removed from registry", "vault", name)
	return nil
}

// AssessPassphrase rates passphrase for a vault called name. When breach
// checks are enabled the HIBP result is folded in; a failed lookup is returned
// as an error next to a still-usable assessment.
func (s *Service) AssessPassphrase(ctx context.Context, name, passphrase string) (auth.Assessment, error) {
	a := auth.Assess(passphrase, name)
	if s.breach == nil {
		return a, nil
	}

	res, err := s.breach.Check(ctx, passphrase)
	if err != nil {
		s.log.Warn("breach check unavailable", "err", err)
		return a, fmt.Errorf("breach check: %w", err)
	}
	a.Breached = res.Found
	a.Seen = res.Count
	return a, nil
}
