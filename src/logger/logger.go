package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"forex-signal-bot/src/models"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = map[Level]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "CRITICAL":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

// sink is the process-wide destination shared by every named Logger.
type sink struct {
	mu     sync.RWMutex
	out    *log.Logger
	level  Level
	recent *RingBuffer
	file   *os.File
}

var defaultSink = &sink{
	out:    log.New(os.Stdout, "", log.LstdFlags),
	level:  LevelDebug,
	recent: NewRingBuffer(500),
}

// -----------------------------------------------------------------------------

// Configure installs the output, level and recent-lines history for all loggers.
// Lines go to stdout (stderr when cfg.Stderr) and, when cfg.File is set, to
// that file as well.
func Configure(cfg models.MLogConfig) error {
	var console io.Writer = os.Stdout
	if cfg.Stderr {
		console = os.Stderr
	}
	writer := console
	var file *os.File

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file '%s': %w", cfg.File, err)
		}
		file = f
		writer = io.MultiWriter(console, f)
	}

	defaultSink.mu.Lock()
	defer defaultSink.mu.Unlock()

	if defaultSink.file != nil {
		defaultSink.file.Close()
	}
	defaultSink.out = log.New(writer, "", log.LstdFlags)
	defaultSink.level = ParseLevel(cfg.Level)
	defaultSink.file = file
	if cfg.RecentHistory > 0 {
		defaultSink.recent = NewRingBuffer(cfg.RecentHistory)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close releases the log file, if any.
func Close() error {
	defaultSink.mu.Lock()
	defer defaultSink.mu.Unlock()

	if defaultSink.file == nil {
		return nil
	}
	err := defaultSink.file.Close()
	defaultSink.file = nil
	defaultSink.out = log.New(os.Stdout, "", log.LstdFlags)
	return err
}

// -----------------------------------------------------------------------------

// Recent returns the last n emitted lines, oldest first.
func Recent(n int) []string {
	defaultSink.mu.RLock()
	defer defaultSink.mu.RUnlock()
	return defaultSink.recent.GetLatest(n)
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	config interface{}
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance
func NewLogger(config interface{}, name string) *Logger {
	return &Logger{
		name:   name,
		config: config,
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) write(level Level, format string, args ...interface{}) {
	defaultSink.mu.RLock()
	defer defaultSink.mu.RUnlock()

	if level < defaultSink.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s: %s", l.name, levelNames[level], msg)
	defaultSink.out.Print(line)
	defaultSink.recent.Append(line)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.write(LevelWarning, format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.write(LevelCritical, format, args...)
	os.Exit(1)
}
