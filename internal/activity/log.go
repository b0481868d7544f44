// Package activity is the user-facing record of what a batch did. Every entry
// is timestamped and appended in emission order; sinks receive entries
// synchronously so terminal output and notifications stay ordered.
package activity

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const TimestampLayout = "2006-01-02 15:04:05"

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelSuccess
)

type Level int

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelSuccess:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts the lower- or upper-case level names.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "SUCCESS":
		return LevelSuccess, nil
	default:
		return 0, fmt.Errorf("unknown activity level %q", s)
	}
}

type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Emitter is what the pipeline writes to.
type Emitter interface {
	Emit(message string, level Level)
}

// Sink consumes entries after they are recorded.
type Sink interface {
	Write(entry Entry)
}

type SinkFunc func(Entry)

func (f SinkFunc) Write(entry Entry) { f(entry) }

type Log struct {
	mu      sync.Mutex
	entries []Entry
	sinks   []Sink
	now     func() time.Time
}

func NewLog(sinks ...Sink) *Log {
	return &Log{
		sinks: sinks,
		now:   time.Now,
	}
}

func (l *Log) AddSink(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sink)
}

func (l *Log) Emit(message string, level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{Time: l.now(), Level: level, Message: message}
	l.entries = append(l.entries, entry)
	slog.Debug("activity", "level", level.String(), "message", message)

	for _, sink := range l.sinks {
		sink.Write(entry)
	}
}

func (l *Log) Info(message string)    { l.Emit(message, LevelInfo) }
func (l *Log) Warning(message string) { l.Emit(message, LevelWarning) }
func (l *Log) Error(message string)   { l.Emit(message, LevelError) }
func (l *Log) Success(message string) { l.Emit(message, LevelSuccess) }

func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]Entry, len(l.entries))
	copy(result, l.entries)
	return result
}

// Count returns how many entries were recorded at the given level.
func (l *Log) Count(level Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
