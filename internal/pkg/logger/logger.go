// Package logger emits line-oriented JSON log records to stderr.
//
// Lead capture means email addresses flow through most request paths, and
// webhook secrets and agent API keys appear in config. Field values are
// therefore masked by default; see redact.go.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log severities from most to least verbose.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

var std = struct {
	mu     sync.Mutex
	out    io.Writer
	min    Level
	redact bool
}{out: os.Stderr, min: INFO, redact: true}

// SetLevel drops records below l.
func SetLevel(l Level) {
	std.mu.Lock()
	std.min = l
	std.mu.Unlock()
}

// SetRedactPII toggles masking of emails and credentials in field values.
func SetRedactPII(on bool) {
	std.mu.Lock()
	std.redact = on
	std.mu.Unlock()
}

// SetOutput redirects records. Used by tests.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.out = w
	std.mu.Unlock()
}

// Debug emits a DEBUG record. Fields are alternating key, value pairs.
func Debug(msg string, fields ...interface{}) { emit(DEBUG, msg, fields) }

// Info emits an INFO record.
func Info(msg string, fields ...interface{}) { emit(INFO, msg, fields) }

// Warn emits a WARN record.
func Warn(msg string, fields ...interface{}) { emit(WARN, msg, fields) }

// Error emits an ERROR record.
func Error(msg string, fields ...interface{}) { emit(ERROR, msg, fields) }

func emit(level Level, msg string, fields []interface{}) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if level < std.min {
		return
	}

	rec := map[string]string{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": level.String(),
		"msg":   msg,
	}
	// A dangling key without a value is dropped rather than guessed at.
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		val := fmt.Sprint(fields[i+1])
		if std.redact {
			val = mask(key, val)
		}
		rec[key] = val
	}

	_ = json.NewEncoder(std.out).Encode(rec)
}
