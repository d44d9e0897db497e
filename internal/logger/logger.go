// Package logger provides process-wide logging for ragchat.
// Debug, Section and Info messages are printed only in verbose mode (--verbose);
// warnings and errors are always printed. Output goes to stderr by default so
// that answers written to stdout stay clean for piping.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = build(os.Stderr, false)

	// writeMu serialises writes to the underlying writer, which may not be
	// safe for concurrent use (e.g. a bytes.Buffer in tests).
	writeMu sync.Mutex
)

// build returns a phuslu logger writing plain "[LEVEL] message" lines.
func build(w io.Writer, v bool) log.Logger {
	level := log.WarnLevel
	if v {
		level = log.DebugLevel
	}
	return log.Logger{
		Level: level,
		Writer: &log.ConsoleWriter{
			Writer:    w,
			Formatter: format,
		},
	}
}

func format(w io.Writer, a *log.FormatterArgs) (int, error) {
	writeMu.Lock()
	defer writeMu.Unlock()
	if strings.HasPrefix(a.Message, "=== ") {
		return fmt.Fprintf(w, "\n%s\n", a.Message)
	}
	return fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(a.Level), a.Message)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build(output, v)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build(w, verbose)
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debug().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	current().Debug().Msgf("=== %s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Info().Msgf(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warn().Msgf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Error().Msgf(format, args...)
}
