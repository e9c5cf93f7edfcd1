// Package logging provides the leveled logger shared by every stfd component.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// EventSink receives operator-facing messages (the Windows Event Log on a
// service host).
type EventSink interface {
	Info(msg string) error
	Warning(msg string) error
	Error(msg string) error
	Close() error
}

// Logger writes "RFC3339 LEVEL component: message" lines.
type Logger struct {
	out       *log.Logger
	level     Level
	component string
	sink      EventSink
	sinkMu    *sync.Mutex
	now       func() time.Time
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{
		out:       log.New(w, "", 0),
		level:     level,
		component: "stfd",
		sinkMu:    &sync.Mutex{},
		now:       time.Now,
	}
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// SetSink attaches the operator channel. It is shared with every child logger.
func (l *Logger) SetSink(s EventSink) {
	l.sinkMu.Lock()
	l.sink = s
	l.sinkMu.Unlock()
}

// WithComponent returns a child logger tagged with name.
func (l *Logger) WithComponent(name string) *Logger {
	c := *l
	c.component = name
	return &c
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// Eventf logs the message and forwards it to the operator channel regardless
// of the configured level.
func (l *Logger) Eventf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.write(level, msg)

	l.sinkMu.Lock()
	sink := l.sink
	l.sinkMu.Unlock()
	if sink == nil {
		return
	}
	var err error
	switch level {
	case LevelError:
		err = sink.Error(msg)
	case LevelWarn:
		err = sink.Warning(msg)
	default:
		err = sink.Info(msg)
	}
	if err != nil {
		l.write(LevelWarn, fmt.Sprintf("event sink: %v", err))
	}
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.write(level, fmt.Sprintf(format, args...))
}

func (l *Logger) write(level Level, msg string) {
	l.out.Printf("%s %s %s: %s", l.now().Format(time.RFC3339), level, l.component, msg)
}
