// Package logger is the process-wide diagnostic logger for marjaa.
//
// The ingestion and retrieval pipelines narrate their progress through
// this package. Output goes to stderr and is suppressed entirely unless
// verbose mode is switched on (the --verbose flag), keeping command
// output clean for scripting.
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
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects verbose logs, e.g. to a buffer in tests.
// Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs fine-grained pipeline detail.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", format, args...)
}

// Info logs pipeline progress.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn logs recoverable problems, e.g. a skipped document.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

// Section prints a header separating pipeline phases.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
