// internal/utils/logger/buffer.go
package logger

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// LogEntry represents a single log entry in the buffer
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     zapcore.Level          `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogBuffer is a thread-safe ring buffer of the most recent log entries.
// The TUI reads it instead of letting zap write over the terminal.
type LogBuffer struct {
	mu           sync.Mutex
	ring         []LogEntry
	maxSize      int
	currentIndex int
	wrapped      bool

	totalEntries uint64
}

// NewLogBuffer creates a buffer holding at most maxSize entries.
func NewLogBuffer(maxSize int) *LogBuffer {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LogBuffer{
		ring:    make([]LogEntry, maxSize),
		maxSize: maxSize,
	}
}

// Add stores an entry, overwriting the oldest one when full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.ring[lb.currentIndex] = entry
	lb.currentIndex = (lb.currentIndex + 1) % lb.maxSize
	if lb.currentIndex == 0 {
		lb.wrapped = true
	}
	lb.totalEntries++
}

// Recent returns up to limit newest entries, oldest first. limit <= 0 returns all.
func (lb *LogBuffer) Recent(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	count := lb.currentIndex
	start := 0
	if lb.wrapped {
		count = lb.maxSize
		start = lb.currentIndex
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	logs := make([]LogEntry, 0, count)
	for i := 0; i < count; i++ {
		logs = append(logs, lb.ring[(start+i)%lb.maxSize])
	}
	return logs
}

// Total returns the number of entries ever added.
func (lb *LogBuffer) Total() uint64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.totalEntries
}

// Core returns a zapcore.Core that records entries at or above level into lb.
func (lb *LogBuffer) Core(level zapcore.LevelEnabler) zapcore.Core {
	return &bufferCore{LevelEnabler: level, buffer: lb}
}

type bufferCore struct {
	zapcore.LevelEnabler
	buffer *LogBuffer
	fields []zapcore.Field
}

func (c *bufferCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &bufferCore{LevelEnabler: c.LevelEnabler, buffer: c.buffer, fields: merged}
}

func (c *bufferCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *bufferCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var m map[string]interface{}
	if len(enc.Fields) > 0 {
		m = enc.Fields
	}

	c.buffer.Add(LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level,
		Logger:    entry.LoggerName,
		Message:   entry.Message,
		Fields:    m,
	})
	return nil
}

func (c *bufferCore) Sync() error { return nil }
