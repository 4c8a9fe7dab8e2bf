// Package logger writes structured JSON log lines for the happenr client and CLI.
//
// An entry carries a UTC timestamp, the level, the message, structured fields
// and, for warnings and errors, the error text:
//
//	{"timestamp":"2026-10-19T09:30:00Z","level":"WARN","message":"happenr request failed",
//	 "fields":{"component":"happenr","endpoint":"getEvents.php"},"error":"invalid status code (503)"}
//
// Loggers derived with With share their parent's destination and level and
// add their own fields to every entry:
//
//	log := logger.Default().With(logger.Fields{"component": "happenr"})
//	log.Debug("happenr request", logger.Fields{"endpoint": "getEvents.php"})
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry is the JSON shape of one line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// sink is the destination shared by a logger and everything derived from it.
type sink struct {
	mu    sync.Mutex
	out   io.Writer
	clock clockwork.Clock
}

func (s *sink) write(entry *LogEntry) {
	data, err := json.Marshal(entry)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// fields that cannot be encoded still leave a trace
		fmt.Fprintf(s.out, "%s %s %s (unencodable fields: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, err)
		return
	}
	s.out.Write(append(data, '\n'))
}

// Logger provides structured logging
type Logger struct {
	sink     *sink
	minLevel Level
	base     Fields
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(LevelInfo, os.Stderr)
)

// New creates a logger writing entries at or above level to output.
// An unknown level is treated as LevelInfo.
func New(level Level, output io.Writer) *Logger {
	return NewWithClock(level, output, clockwork.NewRealClock())
}

// NewWithClock is New with the timestamp source replaced.
func NewWithClock(level Level, output io.Writer, clock clockwork.Clock) *Logger {
	if _, ok := levelRank[level]; !ok {
		level = LevelInfo
	}
	return &Logger{
		sink:     &sink{out: output, clock: clock},
		minLevel: level,
	}
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return New(LevelError, io.Discard)
}

// Default returns the package-level logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level logger. nil restores the stderr
// logger at LevelInfo.
func SetDefault(l *Logger) {
	if l == nil {
		l = New(LevelInfo, os.Stderr)
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// ParseLevel maps a case-insensitive level name to a Level.
// Unknown or empty names fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// With returns a logger that adds fields to every entry. Fields given at
// the call site win over these on key collisions.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, minLevel: l.minLevel, base: merged}
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	entry := &LogEntry{
		Timestamp: l.sink.clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		Level:     string(level),
		Message:   message,
		Fields:    l.merge(fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.sink.write(entry)
}

func (l *Logger) merge(fields Fields) Fields {
	if len(l.base) == 0 {
		return fields
	}
	if len(fields) == 0 {
		return l.base
	}
	out := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a recoverable problem; err may be nil.
func (l *Logger) Warn(message string, fields Fields, err error) {
	l.log(LevelWarn, message, fields, err)
}

func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Debug logs with the default logger.
func Debug(message string, fields Fields) { Default().Debug(message, fields) }

// Info logs with the default logger.
func Info(message string, fields Fields) { Default().Info(message, fields) }

// Warn logs with the default logger.
func Warn(message string, fields Fields, err error) { Default().Warn(message, fields, err) }

// Error logs with the default logger.
func Error(message string, fields Fields, err error) { Default().Error(message, fields, err) }
