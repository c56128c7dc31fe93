// Package logging builds the charmbracelet logger shared by the engine and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(w io.Writer, level string) (*clog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := clog.InfoLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := clog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = parsed
	}
	return clog.NewWithOptions(w, clog.Options{
		Level:           lvl,
		Prefix:          "pm",
		ReportTimestamp: true,
	}), nil
}

// Discard returns a logger that drops everything; handy for tests and for
// callers that do not care about engine diagnostics.
func Discard() *clog.Logger {
	return clog.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *clog.Logger) *clog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
