// Package updatelog implements the shared append-only log used by the
// updater and the external install helper. Both processes write single
// lines of the form "[timestamp] [LEVEL] message"; GUI and CLI status
// consumers scan the tail for known marker substrings.
package updatelog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Level tags a log line.
type Level string

const (
	Info    Level = "INFO"
	Debug   Level = "DEBUG"
	Warning Level = "WARNING"
	Error   Level = "ERROR"
	Success Level = "SUCCESS"
)

// Marker substrings written on terminal states and searched for by
// status consumers.
const (
	MarkerUpdateSuccess    = "UPDATE_SUCCESS"
	MarkerInstallerSuccess = "INSTALLER_SUCCESS"
)

const timestampLayout = "2006-01-02 15:04:05"

// DefaultPath returns the well-known shared log location in the system
// temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "noveldl-update.log")
}

// Logger appends timestamped lines to a shared log file. Each entry is a
// single write so a writer disappearing mid-line cannot corrupt entries
// that follow. The zero value is unusable; construct with New.
type Logger struct {
	path string
	echo bool // mirror lines to stdout
}

// New returns a logger appending to path. When echo is true, lines are
// also printed to stdout (the helper runs headless and relies on this
// for manual diagnosis).
func New(path string, echo bool) *Logger {
	if path == "" {
		path = DefaultPath()
	}
	return &Logger{path: path, echo: echo}
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Log appends one formatted line. Write failures are swallowed: logging
// must never abort an update in progress.
func (l *Logger) Log(level Level, format string, args ...any) {
	line := fmt.Sprintf("[%s] [%s] %s", time.Now().Format(timestampLayout), level, fmt.Sprintf(format, args...))
	if l.echo {
		fmt.Println(line)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}

// Infof logs at INFO level.
func (l *Logger) Infof(format string, args ...any) { l.Log(Info, format, args...) }

// Warnf logs at WARNING level.
func (l *Logger) Warnf(format string, args ...any) { l.Log(Warning, format, args...) }

// Errorf logs at ERROR level.
func (l *Logger) Errorf(format string, args ...any) { l.Log(Error, format, args...) }

// Successf logs at SUCCESS level.
func (l *Logger) Successf(format string, args ...any) { l.Log(Success, format, args...) }

// Clear removes the log file. Missing file is not an error.
func Clear(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
