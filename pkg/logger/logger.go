// Package logger provides a leveled logging interface over the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Logger defines the logging interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "off"
	}
}

type logger struct {
	level   Level
	loggers map[Level]*log.Logger
	exit    func(int)
	mu      sync.RWMutex
}

// New creates a logger writing to stdout and stderr, at the level named by
// the LOG_LEVEL environment variable.
func New() Logger {
	return NewWithLevel(os.Getenv("LOG_LEVEL"), os.Stdout, os.Stderr)
}

// NewWithLevel creates a logger at the named level. Errors go to errOut,
// everything else to out.
func NewWithLevel(level string, out, errOut io.Writer) Logger {
	return &logger{
		level: ParseLevel(level),
		loggers: map[Level]*log.Logger{
			LevelDebug: log.New(out, "[DEBUG] ", log.LstdFlags|log.Lshortfile),
			LevelInfo:  log.New(out, "[INFO] ", log.LstdFlags),
			LevelWarn:  log.New(out, "[WARN] ", log.LstdFlags),
			LevelError: log.New(errOut, "[ERROR] ", log.LstdFlags|log.Lshortfile),
		},
		exit: os.Exit,
	}
}

// Discard returns a logger that drops everything. Fatal still exits.
func Discard() Logger {
	return NewWithLevel("off", io.Discard, io.Discard)
}

// ParseLevel converts a level name to a Level. Unknown names mean info.
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none", "silent":
		return levelOff
	default:
		return LevelInfo
	}
}

func (l *logger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *logger) output(level Level, msg string) {
	if !l.shouldLog(level) {
		return
	}

	l.mu.RLock()
	out := l.loggers[level]
	l.mu.RUnlock()

	out.Output(3, msg)
}

func (l *logger) Debug(v ...interface{}) {
	l.output(LevelDebug, fmt.Sprint(v...))
}

func (l *logger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, fmt.Sprintf(format, v...))
}

func (l *logger) Info(v ...interface{}) {
	l.output(LevelInfo, fmt.Sprint(v...))
}

func (l *logger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, fmt.Sprintf(format, v...))
}

func (l *logger) Warn(v ...interface{}) {
	l.output(LevelWarn, fmt.Sprint(v...))
}

func (l *logger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, fmt.Sprintf(format, v...))
}

func (l *logger) Error(v ...interface{}) {
	l.output(LevelError, fmt.Sprint(v...))
}

func (l *logger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, fmt.Sprintf(format, v...))
}

// Fatal logs at error level, ignoring the configured level, and exits
func (l *logger) Fatal(v ...interface{}) {
	l.loggers[LevelError].Output(2, fmt.Sprint(v...))
	l.exit(1)
}

// Fatalf logs at error level, ignoring the configured level, and exits
func (l *logger) Fatalf(format string, v ...interface{}) {
	l.loggers[LevelError].Output(2, fmt.Sprintf(format, v...))
	l.exit(1)
}
