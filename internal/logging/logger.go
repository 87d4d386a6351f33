// Package logging provides the leveled structured logger shared by the
// tracking core and the demo binaries.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Level is a logging severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string to a Level. The empty string
// maps to Info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Level(0), fmt.Errorf("unsupported log level %q", s)
	}
}

// Format selects how entries are rendered.
type Format int

const (
	Text Format = iota
	JSON
)

// ParseFormat converts a configuration string to a Format. The empty string
// maps to Text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "text", "":
		return Text, nil
	default:
		return Format(0), fmt.Errorf("unsupported log format %q", s)
	}
}

// Field is a structured key/value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger defines leveled structured logging operations.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

var defaultLogger Logger

// Default returns the process-wide logger. Until SetDefault is called it
// discards everything, which keeps library code quiet by default.
func Default() Logger {
	if defaultLogger == nil {
		defaultLogger = New(Info, Text, io.Discard)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

type logger struct {
	level  Level
	format Format
	bound  []Field
	out    *log.Logger
}

// New constructs a Logger writing entries at or above level to out.
func New(level Level, format Format, out io.Writer) Logger {
	return &logger{
		level:  level,
		format: format,
		out:    log.New(out, "", log.LstdFlags),
	}
}

func (l *logger) With(fields ...Field) Logger {
	bound := make([]Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = append(bound, fields...)
	return &logger{level: l.level, format: l.format, bound: bound, out: l.out}
}

func (l *logger) Debug(msg string, fields ...Field) { l.emit(Debug, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.emit(Info, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.emit(Warn, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.emit(Error, msg, fields) }

func (l *logger) emit(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	all := make([]Field, 0, len(l.bound)+len(fields))
	all = append(all, l.bound...)
	all = append(all, fields...)

	if l.format == JSON {
		payload := map[string]any{
			"time":  time.Now().Format(time.RFC3339Nano),
			"level": level.String(),
			"msg":   msg,
		}
		for _, f := range all {
			if f.Key != "" {
				payload[f.Key] = f.Value
			}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			l.out.Printf("[ERROR] marshal log payload: %v", err)
			return
		}
		l.out.Print(string(data))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level.String(), msg)
	for _, f := range all {
		if f.Key == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	l.out.Print(b.String())
}
