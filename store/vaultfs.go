package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	vaultExt         = ".vault"
	registryFilename = "users.dat"

	dirMode  os.FileMode = 0o700
	fileMode os.FileMode = 0o600
)

// Paths locates vault artifacts on disk.
type Paths struct {
	Dir string
}

// VaultPath resolves the container file for a named vault. The name is used
// as-is; callers validate it before it reaches here.
func (p Paths) VaultPath(name string) string {
	return filepath.Join(p.Dir, name+vaultExt)
}

// RegistryPath resolves the registry container.
func (p Paths) RegistryPath() string {
	return filepath.Join(p.Dir, registryFilename)
}

// Disk reads and writes container files through an afero filesystem so the
// same code runs against the OS and an in-memory fs in tests.
type Disk struct {
	fs afero.Fs
}

// NewDisk wraps fs. A nil fs means the OS filesystem.
func NewDisk(fs afero.Fs) *Disk {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Disk{fs: fs}
}

// ReadFile returns the file contents. A missing file yields an error matching
// os.ErrNotExist.
func (d *Disk) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path is present.
func (d *Disk) Exists(path string) (bool, error) {
	ok, err := afero.Exists(d.fs, path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return ok, nil
}

// Remove deletes path. A missing file is not an error.
func (d *Disk) Remove(path string) error {
	if err := d.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (d *Disk) ensureDir(dir string) error {
	if dir == "" {
		return errors.New("vault directory not specified")
	}
	if err := d.fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}
	return nil
}

// WriteAtomic persists data to path with owner-only permissions. The bytes go
// to a temp file in the same directory which is then renamed over path, so a
// reader sees either the old file or the complete new one.
func (d *Disk) WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := d.ensureDir(dir); err != nil {
		return err
	}

	tmp, err := afero.TempFile(d.fs, dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		d.fs.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		d.fs.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		d.fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := d.fs.Chmod(tmpPath, fileMode); err != nil {
		d.fs.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := d.fs.Rename(tmpPath, path); err != nil {
		d.fs.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
