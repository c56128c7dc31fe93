package auth

import (
	"errors"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

const (
	specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_{|}~`"
	minLength    = 12

	// DefaultMinScore is the zxcvbn score (0-4) below which a passphrase is weak.
	DefaultMinScore = 3
)

// ErrEmptyPassphrase rejects an empty passphrase at the service boundary.
// The crypto layers below accept one.
var ErrEmptyPassphrase = errors.New("passphrase must not be empty")

// Assessment is the advisory strength report for a vault passphrase. Weak
// passphrases are reported, never rejected.
type Assessment struct {
	Score     int
	CrackTime string
	Findings  []string
	Breached  bool
	Seen      int
}

// Weak reports whether the passphrase falls below minScore or was found in a
// breach corpus.
func (a Assessment) Weak(minScore int) bool {
	return a.Score < minScore || a.Breached
}

// Assess scores pw with zxcvbn and lists the composition rules it misses.
// userInputs (vault name, email) are penalised when they appear in pw.
func Assess(pw string, userInputs ...string) Assessment {
	match := zxcvbn.PasswordStrength(pw, userInputs)
	return Assessment{
		Score:     match.Score,
		CrackTime: match.CrackTimeDisplay,
		Findings:  compositionFindings(pw),
	}
}

func compositionFindings(pw string) []string {
	var out []string
	if len([]rune(pw)) < minLength {
		out = append(out, "shorter than 12 characters")
	}
	if !hasUpper(pw) {
		out = append(out, "no uppercase letter")
	}
	if !hasDigit(pw) {
		out = append(out, "no digit")
	}
	if !hasSpecial(pw) {
		out = append(out, "no special character")
	}
	return out
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasSpecial(s string) bool {
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
