package service_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/pwvault/auth"
	"github.com/Hussein-Mazeh/pwvault/internal/config"
	"github.com/Hussein-Mazeh/pwvault/internal/container"
	"github.com/Hussein-Mazeh/pwvault/internal/registry"
	"github.com/Hussein-Mazeh/pwvault/internal/service"
	"github.com/Hussein-Mazeh/pwvault/internal/vault"
)

const dataDir = "/data"

func testConfig() config.Config {
	return config.Config{DataDir: dataDir, LogLevel: "info", MinScore: auth.DefaultMinScore}
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

// flakyFs fails renames onto the registry file while failRegistry is set.
type flakyFs struct {
	afero.Fs
	failRegistry bool
}

func (f *flakyFs) Rename(oldname, newname string) error {
	if f.failRegistry && filepath.Base(newname) == "users.dat" {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errors.New("disk full")}
	}
	return f.Fs.Rename(oldname, newname)
}

func newService(t *testing.T, fs afero.Fs, opts ...service.Option) *service.Service {
	t.Helper()
	s, err := service.New(testConfig(), append([]service.Option{service.WithFs(fs)}, opts...)...)
	require.NoError(t, err)
	return s
}

func names(ids []registry.Identity) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Name)
	}
	return out
}

func TestRegisterThenOpenEmptyVault(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newService(t, fs)

	require.NoError(t, s.RegisterVault("alice", "p1"))
	assert.Equal(t, []string{"alice"}, names(s.ListVaults()))

	ok, err := afero.Exists(fs, filepath.Join(dataDir, "alice.vault"))
	require.NoError(t, err)
	assert.True(t, ok)

	sess, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, service.Unlocked, sess.State())
	assert.Equal(t, "alice", sess.Name())

	entries, err := sess.Entries()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())

	assert.ErrorIs(t, s.RegisterVault("../etc", "p1"), auth.ErrInvalidName)
	assert.ErrorIs(t, s.RegisterVault("", "p1"), auth.ErrInvalidName)
	assert.ErrorIs(t, s.RegisterVault("alice", ""), auth.ErrEmptyPassphrase)
	assert.Empty(t, s.ListVaults())
}

func TestRegisterDuplicateAndExistingFile(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())

	require.NoError(t, s.RegisterVault("alice", "p1"))
	assert.ErrorIs(t, s.RegisterVault("alice", "p2"), registry.ErrDuplicateName)

	// A file on disk that the registry does not know about.
	require.NoError(t, s.SaveEntries("bob", "p1", vault.Collection{{Service: "x"}}))
	assert.ErrorIs(t, s.RegisterVault("bob", "p2"), service.ErrVaultExists)

	sess, err := s.OpenVault("bob", "p1")
	require.NoError(t, err)
	entries, err := sess.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the existing vault was not overwritten")
}

func TestRegisterRollsBackVaultFileWhenRegistryWriteFails(t *testing.T) {
	fs := &flakyFs{Fs: afero.NewMemMapFs()}
	s := newService(t, fs)

	fs.failRegistry = true
	err := s.RegisterVault("alice", "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	ok, err := afero.Exists(fs, filepath.Join(dataDir, "alice.vault"))
	require.NoError(t, err)
	assert.False(t, ok, "the orphaned vault file is removed")
	assert.Empty(t, s.ListVaults())
}

func TestOpenWrongPassphrase(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())
	require.NoError(t, s.RegisterVault("alice", "p1"))

	_, err := s.OpenVault("alice", "wrong")
	assert.ErrorIs(t, err, container.ErrWrongPassphraseOrCorrupted)
	assert.Equal(t, "Wrong password, or the vault file is corrupted.", service.Describe(err))
}

func TestOpenMissingVault(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())

	_, err := s.OpenVault("ghost", "p1")
	assert.ErrorIs(t, err, vault.ErrVaultNotFound)
}

func TestOpenTouchesRegistry(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s := newService(t, afero.NewMemMapFs(), service.WithClock(c.Now))
	require.NoError(t, s.RegisterVault("alice", "p1"))

	c.t = c.t.Add(48 * time.Hour)
	_, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)

	assert.Equal(t, c.t, s.ListVaults()[0].LastAccessed)
}

func TestOpenSucceedsWhenTouchFails(t *testing.T) {
	fs := &flakyFs{Fs: afero.NewMemMapFs()}
	c := &clock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s := newService(t, fs, service.WithClock(c.Now))
	require.NoError(t, s.RegisterVault("alice", "p1"))
	registered := s.ListVaults()[0].LastAccessed

	fs.failRegistry = true
	c.t = c.t.Add(time.Hour)
	sess, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, service.Unlocked, sess.State())
	assert.Equal(t, registered, s.ListVaults()[0].LastAccessed)
}

func TestSessionEditAndSave(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())
	require.NoError(t, s.RegisterVault("alice", "p1"))

	sess, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)

	require.NoError(t, sess.Add(vault.Record{Service: "GitHub", Email: "dev@example.com", Password: "C0d3r#2023"}))
	require.NoError(t, sess.Add(vault.Record{Service: "Amazon", Email: "shop@example.com", Password: "Buy$tuff2023"}))
	require.NoError(t, sess.Add(vault.Record{Service: "Bank"}))
	require.NoError(t, sess.Update(1, vault.Record{Service: "Amazon", Email: "shop@example.com", Password: "n3w"}))
	require.NoError(t, sess.Delete(2))
	assert.True(t, sess.Dirty())

	assert.ErrorIs(t, sess.Update(5, vault.Record{}), service.ErrNoSuchEntry)
	assert.ErrorIs(t, sess.Delete(-1), service.ErrNoSuchEntry)

	require.NoError(t, sess.Save())
	assert.False(t, sess.Dirty())

	again, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)
	entries, err := again.Entries()
	require.NoError(t, err)
	assert.Equal(t, vault.Collection{
		{Service: "GitHub", Email: "dev@example.com", Password: "C0d3r#2023"},
		{Service: "Amazon", Email: "shop@example.com", Password: "n3w"},
	}, entries)
}

func TestSessionEntriesIsACopy(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())
	require.NoError(t, s.SaveEntries("alice", "p1", vault.Collection{{Service: "a"}}))

	sess, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)

	entries, err := sess.Entries()
	require.NoError(t, err)
	entries[0].Service = "mutated"

	fresh, err := sess.Entries()
	require.NoError(t, err)
	assert.Equal(t, "a", fresh[0].Service)
}

func TestLockedSessionRefusesEverything(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())
	require.NoError(t, s.RegisterVault("alice", "p1"))

	sess, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)
	require.NoError(t, sess.Add(vault.Record{Service: "unsaved"}))

	sess.Lock()
	sess.Lock()
	assert.Equal(t, service.Locked, sess.State())
	assert.Equal(t, "locked", sess.State().String())
	assert.False(t, sess.Dirty())

	_, err = sess.Entries()
	assert.ErrorIs(t, err, service.ErrLocked)
	assert.ErrorIs(t, sess.Add(vault.Record{}), service.ErrLocked)
	assert.ErrorIs(t, sess.Update(0, vault.Record{}), service.ErrLocked)
	assert.ErrorIs(t, sess.Delete(0), service.ErrLocked)
	assert.ErrorIs(t, sess.Save(), service.ErrLocked)

	reopened, err := s.OpenVault("alice", "p1")
	require.NoError(t, err)
	entries, err := reopened.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries, "unsaved changes are discarded on lock")
}

func TestRemoveKeepsFileThenImport(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newService(t, fs)
	require.NoError(t, s.RegisterVault("alice", "p1"))

	require.NoError(t, s.RemoveVault("alice", false))
	assert.Empty(t, s.ListVaults())

	ok, err := afero.Exists(fs, filepath.Join(dataDir, "alice.vault"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, s.ImportVault("alice", "wrong"), container.ErrWrongPassphraseOrCorrupted)
	assert.Empty(t, s.ListVaults())

	require.NoError(t, s.ImportVault("alice", "p1"))
	assert.Equal(t, []string{"alice"}, names(s.ListVaults()))
	assert.ErrorIs(t, s.ImportVault("alice", "p1"), registry.ErrDuplicateName)
}

func TestImportMissingFile(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())
	assert.ErrorIs(t, s.ImportVault("ghost", "p1"), vault.ErrVaultNotFound)
}

func TestRemoveWithDeleteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newService(t, fs)
	require.NoError(t, s.RegisterVault("alice", "p1"))

	require.NoError(t, s.RemoveVault("alice", true))

	ok, err := afero.Exists(fs, filepath.Join(dataDir, "alice.vault"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.RemoveVault("alice", true), "removing twice is a no-op")
	assert.ErrorIs(t, s.RemoveVault("../x", true), auth.ErrInvalidName)
}

func TestRegistrySurvivesRestart(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newService(t, fs)
	require.NoError(t, s.RegisterVault("alice", "p1"))
	require.NoError(t, s.RegisterVault("bob", "p2"))

	restarted := newService(t, fs)
	assert.Equal(t, []string{"alice", "bob"}, names(restarted.ListVaults()))
}

func TestNewRejectsCorruptRegistry(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dataDir, "users.dat"), []byte("garbage"), 0o600))

	_, err := service.New(testConfig(), service.WithFs(fs))
	assert.ErrorIs(t, err, container.ErrMalformedContainer)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DataDir = " "
	_, err := service.New(cfg, service.WithFs(afero.NewMemMapFs()))
	assert.Error(t, err)
}

func TestAssessPassphraseOffline(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())

	a, err := s.AssessPassphrase(context.Background(), "alice", "alice")
	require.NoError(t, err)
	assert.True(t, a.Weak(s.MinScore()))
	assert.False(t, a.Breached)
}

func TestAssessPassphraseWithBreachCheck(t *testing.T) {
	sum := sha1.Sum([]byte("hunter2"))
	hash := strings.ToUpper(hex.EncodeToString(sum[:]))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s:42\r\n", hash[5:])
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreachCheck = true
	checker := &auth.BreachChecker{Client: srv.Client(), BaseURL: srv.URL + "/range/"}
	s, err := service.New(cfg, service.WithFs(afero.NewMemMapFs()), service.WithBreachChecker(checker))
	require.NoError(t, err)

	a, err := s.AssessPassphrase(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.True(t, a.Breached)
	assert.Equal(t, 42, a.Seen)
}

func TestAssessPassphraseBreachCheckFailureKeepsScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BreachCheck = true
	checker := &auth.BreachChecker{Client: srv.Client(), BaseURL: srv.URL + "/range/"}
	s, err := service.New(cfg, service.WithFs(afero.NewMemMapFs()), service.WithBreachChecker(checker))
	require.NoError(t, err)

	a, err := s.AssessPassphrase(context.Background(), "alice", "k8#Qz!vP2m@Lw9rT")
	assert.Error(t, err)
	assert.False(t, a.Breached)
	assert.GreaterOrEqual(t, a.Score, 3)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{vault.ErrVaultNotFound, "No vault with that name exists. Create it first."},
		{fmt.Errorf("wrapped: %w", container.ErrMalformedContainer), "The vault file is truncated or is not a vault."},
		{container.ErrInvalidContainer, "The vault file is corrupted or is not a vault."},
		{registry.ErrDuplicateName, "A vault with that name is already registered. Pick another name."},
		{auth.ErrEmptyPassphrase, "The password must not be empty."},
		{service.ErrLocked, "The vault is locked. Open it again."},
		{errors.New("read /x: permission denied"), "read /x: permission denied"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.Describe(tt.err))
	}
}

func TestExpected(t *testing.T) {
	assert.True(t, service.Expected(fmt.Errorf("load: %w", container.ErrWrongPassphraseOrCorrupted)))
	assert.True(t, service.Expected(auth.ErrInvalidName))
	assert.False(t, service.Expected(errors.New("permission denied")))
	assert.False(t, service.Expected(nil))
}

func TestInspectVault(t *testing.T) {
	s := newService(t, afero.NewMemMapFs())
	require.NoError(t, s.RegisterVault("alice", "p1"))

	h, err := s.InspectVault("alice")
	require.NoError(t, err)
	assert.Len(t, h.Salt, 16)

	_, err = s.InspectVault("a/b")
	assert.ErrorIs(t, err, auth.ErrInvalidName)
}
