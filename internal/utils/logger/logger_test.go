package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watcher.log")
	cfg := DefaultConfig()
	cfg.LogFile = path
	cfg.Console = false

	log, err := New(cfg)
	require.NoError(t, err)

	log.WithComponent("watcher").Info("Live price", zap.String("price", "0.0000279"))
	log.Debug("hidden at info level")
	require.NoError(t, log.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 1)
	assert.Equal(t, "INFO", records[0]["level"])
	assert.Equal(t, "Live price", records[0]["msg"])
	assert.Equal(t, "watcher", records[0]["component"])
	assert.Equal(t, "0.0000279", records[0]["price"])
	assert.Contains(t, records[0], "timestamp")
}

func TestDevelopmentEnablesDebug(t *testing.T) {
	buf := NewLogBuffer(10)
	log, err := New(&Config{Development: true}, buf.Core(zapcore.DebugLevel))
	require.NoError(t, err)

	log.Debug("debug visible")
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	require.Len(t, buf.Recent(0), 1)
}

func TestWithOperationAddsCorrelationID(t *testing.T) {
	buf := NewLogBuffer(10)
	log, err := New(&Config{}, buf.Core(zapcore.InfoLevel))
	require.NoError(t, err)

	log.WithOperation("resolve_pair").Info("first")
	log.WithOperation("resolve_pair").Info("second")

	entries := buf.Recent(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "resolve_pair", entries[0].Fields["operation"])
	assert.NotEmpty(t, entries[0].Fields["correlation_id"])
	assert.NotEqual(t, entries[0].Fields["correlation_id"], entries[1].Fields["correlation_id"])
}

func TestWithMarket(t *testing.T) {
	buf := NewLogBuffer(10)
	log, err := New(&Config{}, buf.Core(zapcore.InfoLevel))
	require.NoError(t, err)

	market := solana.MustPublicKeyFromBase58("8EiGdx3XVeWS6WdurL1pEm3PpHKbBZ9tUMSJKQdkqM29")
	log.WithMarket(market, solana.SolMint).Info("subscribed")

	entries := buf.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, market.String(), entries[0].Fields["market"])
	assert.Equal(t, solana.SolMint.String(), entries[0].Fields["mint"])
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "FwZD…pump", ShortenAddress("FwZDuAphAwfZz5Myg6zFZCErwkqD1kR9sjU26V3xpump"))
	assert.Equal(t, "short", ShortenAddress("short"))
}

func TestColorizeLevel(t *testing.T) {
	assert.Equal(t, ColorYellow+"[WARN]"+ColorReset, ColorizeLevel(zapcore.WarnLevel))
	assert.Contains(t, ColorizeLevel(zapcore.FatalLevel), "[FATAL]")
}
