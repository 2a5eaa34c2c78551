// Package logging provides debug logging utilities for bootmenu.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// DebugEnabled controls whether Debug() produces output.
// Set via -debug flag or DEBUG=1 environment variable.
var DebugEnabled bool

// Debug logs a message only when DebugEnabled is true.
func Debug(format string, args ...any) {
	if DebugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Redirect points the standard logger away from the terminal the menu
// draws on. An empty path discards the log, "-" keeps stderr, anything else
// is a file opened for appending. Close the result when done.
func Redirect(path string) (io.Closer, error) {
	switch path {
	case "":
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	case "-":
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	log.SetOutput(f)
	return f, nil
}
