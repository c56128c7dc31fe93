package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const maxNameLen = 64

// ErrInvalidName is returned for vault names that cannot safely become a
// file name inside the data directory.
var ErrInvalidName = errors.New("invalid vault name")

// ValidateVaultName is the path-traversal boundary: the name is later joined
// onto the data directory unmodified, so anything that could escape it or
// alias another file is refused here.
func ValidateVaultName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > maxNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\:`):
		return fmt.Errorf("%w: contains a path separator", ErrInvalidName)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidName)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: must not start with a dot", ErrInvalidName)
	}
	for _, r := range name {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains a control or invalid character", ErrInvalidName)
		}
	}
	return nil
}
