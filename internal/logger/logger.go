// Package logger provides leveled logging for the bookshelf CLI.
// Messages go to stderr; debug messages are gated behind the
// --verbose flag. An optional log file receives everything.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	logFile *os.File
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
// Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetLogFile additionally appends every message, including debug
// messages, to the given file. An empty path disables the file sink.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	return nil
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func emit(level, format string, toStderr bool, args ...any) {
	line := fmt.Sprintf("["+level+"] "+format+"\n", args...)
	if toStderr {
		fmt.Fprint(output, line)
	}
	if logFile != nil {
		fmt.Fprint(logFile, time.Now().Format(time.RFC3339)+" "+line)
	}
}

// Debug prints a message if verbose mode is enabled. The log file
// receives it regardless.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	emit("DEBUG", format, verbose, args...)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	emit("INFO", format, true, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	emit("WARN", format, true, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	emit("ERROR", format, true, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
