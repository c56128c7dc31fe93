package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Hussein-Mazeh/pwvault/krypto"
)

var warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

func promptPassword(label string) ([]byte, error) {
	fmt.Fprint(os.Stderr, label)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// readPassword prompts once and rejects an empty answer.
func (a *app) readPassword(label string) (string, error) {
	pw, err := a.prompt(label)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	defer krypto.Zero(pw)

	if len(pw) == 0 {
		return "", userError{msg: "password must not be empty"}
	}
	return string(pw), nil
}

// readNewPassword prompts twice and requires both answers to match.
func (a *app) readNewPassword(label, confirmLabel string) (string, error) {
	pw, err := a.prompt(label)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	defer krypto.Zero(pw)

	confirm, err := a.prompt(confirmLabel)
	if err != nil {
		return "", fmt.Errorf("read confirmation password: %w", err)
	}
	defer krypto.Zero(confirm)

	if !bytes.Equal(pw, confirm) {
		return "", userError{msg: "passwords do not match"}
	}
	if len(pw) == 0 {
		return "", userError{msg: "password must not be empty"}
	}
	return string(pw), nil
}

// warnIfWeak prints the strength findings for pw; hint is penalised if pw
// contains it. A weak password is only
// reported; the caller goes ahead regardless.
func (a *app) warnIfWeak(ctx context.Context, hint, pw string) {
	assessment, err := a.svc.AssessPassphrase(ctx, hint, pw)
	if err != nil {
		fmt.Fprintln(a.errOut, warnStyle.Render("warning: could not check the password against known breaches"))
	}

	if assessment.Breached {
		fmt.Fprintln(a.errOut, warnStyle.Render(fmt.Sprintf("warning: this password appears in %d known breaches", assessment.Seen)))
	}
	if assessment.Score >= a.svc.MinScore() {
		return
	}

	fmt.Fprintln(a.errOut, warnStyle.Render(fmt.Sprintf("warning: weak password (score %d/4, cracked in %s)", assessment.Score, assessment.CrackTime)))
	for _, f := range assessment.Findings {
		fmt.Fprintf(a.errOut, "  - %s\n", f)
	}
}
