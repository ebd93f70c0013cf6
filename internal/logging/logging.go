// Package logging is a trimmed re-expression of the ingest/log package's
// Logger: a level-gated, mutex-guarded writer with RFC 5424 framing. It
// exists so the agent's own packages never reach for the standard
// library's "log" package directly, matching the teacher repository's own
// logging discipline.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level is a logging severity, ordered least to most severe.
type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "OFF"
	}
}

var severity = map[Level]rfc5424.Priority{
	DEBUG:    rfc5424.Debug,
	INFO:     rfc5424.Info,
	WARN:     rfc5424.Warning,
	ERROR:    rfc5424.Error,
	CRITICAL: rfc5424.Crit,
}

// Logger is a level-gated sink for RFC 5424 formatted log entries.
type Logger struct {
	mtx      sync.Mutex
	w        io.Writer
	lvl      Level
	hostname string
	appname  string
}

// New returns a Logger writing to w at level lvl.
func New(w io.Writer, lvl Level) *Logger {
	host, err := os.Hostname()
	if err != nil {
		host = "-"
	}
	return &Logger{
		w:        w,
		lvl:      lvl,
		hostname: host,
		appname:  filepath.Base(os.Args[0]),
	}
}

// NewDiscard returns a Logger that drops everything, for use in tests.
func NewDiscard() *Logger { return New(io.Discard, OFF) }

// SetLevel changes the minimum level that will be emitted.
func (l *Logger) SetLevel(lvl Level) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.lvl = lvl
}

// SetLevelString parses one of "debug", "info", "warn", "error",
// "critical", "off" (case-insensitive) and applies it via SetLevel.
func (l *Logger) SetLevelString(s string) error {
	switch strings.ToLower(s) {
	case "debug":
		l.SetLevel(DEBUG)
	case "info":
		l.SetLevel(INFO)
	case "warn", "warning":
		l.SetLevel(WARN)
	case "error":
		l.SetLevel(ERROR)
	case "critical":
		l.SetLevel(CRITICAL)
	case "off":
		l.SetLevel(OFF)
	default:
		return fmt.Errorf("logging: unknown level %q", s)
	}
	return nil
}

func (l *Logger) outputf(lvl Level, format string, args ...any) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if lvl < l.lvl || l.lvl == OFF {
		return
	}
	msg := rfc5424.Message{
		Priority:  severity[lvl],
		Timestamp: time.Now(),
		Hostname:  l.hostname,
		AppName:   l.appname,
		MessageID: lvl.String(),
		Message:   []byte(fmt.Sprintf(format, args...)),
	}
	b, err := msg.MarshalBinary()
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = l.w.Write(b)
}

func (l *Logger) Debugf(format string, args ...any)    { l.outputf(DEBUG, format, args...) }
func (l *Logger) Infof(format string, args ...any)     { l.outputf(INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any)     { l.outputf(WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any)    { l.outputf(ERROR, format, args...) }
func (l *Logger) Criticalf(format string, args ...any) { l.outputf(CRITICAL, format, args...) }
