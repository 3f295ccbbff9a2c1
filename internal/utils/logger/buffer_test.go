package logger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogBufferWrapsAround(t *testing.T) {
	buf := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		buf.Add(LogEntry{Message: fmt.Sprintf("msg-%d", i)})
	}

	entries := buf.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "msg-2", entries[0].Message)
	assert.Equal(t, "msg-4", entries[2].Message)
	assert.Equal(t, uint64(5), buf.Total())

	last := buf.Recent(2)
	require.Len(t, last, 2)
	assert.Equal(t, "msg-3", last[0].Message)
	assert.Equal(t, "msg-4", last[1].Message)
}

func TestLogBufferBeforeWrap(t *testing.T) {
	buf := NewLogBuffer(10)
	assert.Empty(t, buf.Recent(5))

	buf.Add(LogEntry{Message: "a"})
	buf.Add(LogEntry{Message: "b"})

	entries := buf.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Message)
}

func TestBufferCoreRecordsFields(t *testing.T) {
	buf := NewLogBuffer(10)
	log := zap.New(buf.Core(zapcore.InfoLevel)).Named("watcher").With(zap.String("market", "abc"))

	log.Debug("dropped")
	log.Warn("WebSocket error, reconnecting", zap.Duration("retry_in", 2*time.Second))

	entries := buf.Recent(0)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, zapcore.WarnLevel, e.Level)
	assert.Equal(t, "watcher", e.Logger)
	assert.Equal(t, "WebSocket error, reconnecting", e.Message)
	assert.Equal(t, "abc", e.Fields["market"])
	assert.Equal(t, 2*time.Second, e.Fields["retry_in"])
	assert.False(t, e.Timestamp.IsZero())
}

func TestLogBufferConcurrentAdd(t *testing.T) {
	buf := NewLogBuffer(50)
	log := zap.New(buf.Core(zapcore.DebugLevel))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				log.Info("tick", zap.Int("goroutine", id), zap.Int("seq", i))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, uint64(800), buf.Total())
	assert.Len(t, buf.Recent(0), 50)
}
