// This package is a tiny wrapper on top of standard log.Logger interface
// and creates logs in a fixed, greppable single-line style:
//
//	dhcp-reservation-tracker[PID]: <Timestamp> <Level> <Message>
//
// The DEBUG level is suppressed unless verbose mode is enabled; it is meant
// for per-record diagnostics (skipped files, probe details, etc) that would
// be too chatty for a scheduled run invoked every few minutes.
package logger

import (
	"fmt"
	"log"
	"os"
	"time"
)

type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
	FATAL LogLevel = "FATAL"
)

type CustomLogger struct {
	logger  *log.Logger
	pid     int
	prefix  string
	verbose bool
}

func NewCustomLogger(prefix string) *CustomLogger {
	pid := os.Getpid()
	logger := log.New(os.Stdout, "", 0) // No flags here, we'll add timestamp manually
	return &CustomLogger{
		logger: logger,
		pid:    pid,
		prefix: prefix,
	}
}

// SetVerbose enables or disables the DEBUG level.
func (l *CustomLogger) SetVerbose(verbose bool) {
	l.verbose = verbose
}

func (l *CustomLogger) Log(level LogLevel, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logMessage := fmt.Sprintf("%s[%d]: %s %s %s", l.prefix, l.pid, timestamp, level, message)
	l.logger.Print(logMessage)
}

// Debug logs a message only when verbose mode is enabled.
func (l *CustomLogger) Debug(message string) {
	if l.verbose {
		l.Log(DEBUG, message)
	}
}

// Debugf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Debugf(format string, v ...any) {
	if l.verbose {
		l.Debug(fmt.Sprintf(format, v...))
	}
}

// Info
func (l *CustomLogger) Info(message string) {
	l.Log(INFO, message)
}

// Infof
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Infof(format string, v ...any) {
	l.Info(fmt.Sprintf(format, v...))
}

// Warn
func (l *CustomLogger) Warn(message string) {
	l.Log(WARN, message)
}

// Warnf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Warnf(format string, v ...any) {
	l.Warn(fmt.Sprintf(format, v...))
}

// Error
func (l *CustomLogger) Error(message string) {
	l.Log(ERROR, message)
}

// Errorf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Errorf(format string, v ...any) {
	l.Error(fmt.Sprintf(format, v...))
}

// Fatal logs at FATAL level; the decision to exit is left to the caller,
// so that deferred cleanups still run.
func (l *CustomLogger) Fatal(s string) {
	l.Log(FATAL, s)
}

// Fatalf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Fatalf(format string, v ...any) {
	l.Fatal(fmt.Sprintf(format, v...))
}
