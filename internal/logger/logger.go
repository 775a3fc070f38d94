// Package logger writes pipeline traces for litsearch to stderr.
//
// Debug, Info, Warn, Section and Timed print only when verbose mode is on
// (--verbose). Error always prints.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects all log lines to w. The default is os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func Debug(format string, args ...any) { emit("[DEBUG] ", false, format, args...) }

func Info(format string, args ...any) { emit("[INFO] ", false, format, args...) }

func Warn(format string, args ...any) { emit("[WARN] ", false, format, args...) }

// Error prints whether or not verbose output is on.
func Error(format string, args ...any) { emit("[ERROR] ", true, format, args...) }

// Section prints a blank line and a "=== name ===" header.
func Section(name string) {
	emit("\n", false, "=== %s ===", name)
}

// Timed starts a stopwatch for stage and returns the function that logs
// its duration. Typical use is defer logger.Timed("query")().
func Timed(stage string) func() {
	start := now()
	return func() {
		emit("[DEBUG] ", false, "%s took %s", stage, now().Sub(start).Round(time.Microsecond))
	}
}

func emit(prefix string, always bool, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !always && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
