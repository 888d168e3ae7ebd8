// Package logging provides the leveled, field-carrying logger used by the
// matcher, the sample sources and the CLI. Lines are written in logfmt:
//
//	2024/01/02 15:04:05 level=warn msg="abandoning regex evaluation" grammar=nginx timeout=2s
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Field keys shared by the packages that log about patterns and samples.
const (
	FieldGrammar = "grammar"
	FieldRegex   = "regex"
	FieldGroups  = "groups"
	FieldSource  = "source"
	FieldPath    = "path"
	FieldTimeout = "timeout"
	FieldSample  = "sample_len"
)

// MaxValueLen caps a rendered field value; compiled regexes run long.
const MaxValueLen = 96

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithField returns a logger that adds key=value to every line.
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger that adds all of fields to every line.
	WithFields(fields map[string]interface{}) Logger

	// SetLevel sets the minimum level for this logger and every logger
	// derived from it.
	SetLevel(level Level)

	SetOutput(w io.Writer)
}

// ForPattern returns l carrying the grammar and the (truncated) regex of a
// compiled pattern.
func ForPattern(l Logger, grammar fmt.Stringer, regex string) Logger {
	return l.WithFields(map[string]interface{}{
		FieldGrammar: grammar,
		FieldRegex:   regex,
	})
}

var (
	defaultLogger Logger = New()
	defaultMu     sync.RWMutex
)

// Default returns the package-level logger used by sources that were not
// given one.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

func Debug(msg string, args ...interface{}) { Default().Debug(msg, args...) }
func Info(msg string, args ...interface{})  { Default().Info(msg, args...) }
func Warn(msg string, args ...interface{})  { Default().Warn(msg, args...) }
func Error(msg string, args ...interface{}) { Default().Error(msg, args...) }

// fmtLogger writes logfmt lines through a standard library log.Logger.
// Derived loggers share the parent's writer and level.
type fmtLogger struct {
	out    *log.Logger
	level  *atomic.Int32
	fields string
}

// New creates a logger writing to stderr at info level.
func New() Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput creates a logger writing to w at info level.
func NewWithOutput(w io.Writer) Logger {
	level := new(atomic.Int32)
	level.Store(int32(LevelInfo))
	return &fmtLogger{
		out:   log.New(w, "", log.LstdFlags),
		level: level,
	}
}

func (l *fmtLogger) log(level Level, msg string, args []interface{}) {
	if int32(level) < l.level.Load() {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString("level=")
	b.WriteString(strings.ToLower(level.String()))
	b.WriteString(" msg=")
	b.WriteString(strconv.Quote(msg))
	b.WriteString(l.fields)
	l.out.Print(b.String())
}

func (l *fmtLogger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args) }
func (l *fmtLogger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args) }
func (l *fmtLogger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args) }
func (l *fmtLogger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args) }

func (l *fmtLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields renders the fields once, sorted by key, so logging a line does
// no per-field work.
func (l *fmtLogger) WithFields(fields map[string]interface{}) Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(l.fields)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[k]))
	}
	return &fmtLogger{out: l.out, level: l.level, fields: b.String()}
}

func (l *fmtLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *fmtLogger) SetOutput(w io.Writer) {
	l.out.SetOutput(w)
}

// formatValue renders v for a logfmt line: cut to MaxValueLen runes and
// quoted when it is empty or holds spaces, quotes or '='.
func formatValue(v interface{}) string {
	s := fmt.Sprint(v)
	if r := []rune(s); len(r) > MaxValueLen {
		s = string(r[:MaxValueLen-3]) + "..."
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(msg string, args ...interface{})             {}
func (NopLogger) Info(msg string, args ...interface{})              {}
func (NopLogger) Warn(msg string, args ...interface{})              {}
func (NopLogger) Error(msg string, args ...interface{})             {}
func (n NopLogger) WithField(key string, value interface{}) Logger  { return n }
func (n NopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (NopLogger) SetLevel(level Level)                              {}
func (NopLogger) SetOutput(w io.Writer)                             {}
