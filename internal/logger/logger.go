// Package logger prints pipeline progress to stderr when the CLI runs
// with --verbose. It stays silent otherwise so command output remains
// parseable.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects verbose logs. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// emit holds the read lock across the write so SetOutput cannot swap
// the writer mid-line.
func emit(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, tag+" "+format+"\n", args...)
}

// Debug prints a debug message if verbose mode is enabled.
func Debug(format string, args ...any) { emit("[DEBUG]", format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { emit("[INFO]", format, args...) }

// Warn prints a warning if verbose mode is enabled.
func Warn(format string, args ...any) { emit("[WARN]", format, args...) }
