package bot

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/config"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/pumpfun"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
)

var (
	testPair = solana.MustPublicKeyFromBase58("8EiGdx3XVeWS6WdurL1pEm3PpHKbBZ9tUMSJKQdkqM29")
	testMint = solana.MustPublicKeyFromBase58("FwZDuAphAwfZz5Myg6zFZCErwkqD1kR9sjU26V3xpump")
)

// newMintRPC answers getAccountInfo with an SPL mint whose decimals byte is set.
func newMintRPC(t *testing.T, decimals uint8) *httptest.Server {
	t.Helper()
	data := make([]byte, 82)
	data[44] = decimals

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": map[string]interface{}{
					"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
					"executable": false,
					"lamports":   1461600,
					"owner":      solana.TokenProgramID.String(),
					"rentEpoch":  0,
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newCurveStream acknowledges the subscription and pushes one curve update.
func newCurveStream(t *testing.T, account *pumpfun.BondingCurveAccount) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req struct {
			ID uint64 `json:"id"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		ack := fmt.Sprintf(`{"jsonrpc":"2.0","result":77,"id":%d}`, req.ID)
		note := fmt.Sprintf(
			`{"jsonrpc":"2.0","method":"accountNotification","params":{"result":{"context":{"slot":42},"value":{"data":[%q,"base64"]}},"subscription":77}}`,
			base64.StdEncoding.EncodeToString(account.Encode()))
		if conn.WriteMessage(websocket.TextMessage, []byte(ack)) != nil ||
			conn.WriteMessage(websocket.TextMessage, []byte(note)) != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRunnerConfig(rpcURL, wsURL string) *config.Config {
	return &config.Config{
		RPCURL:         rpcURL,
		WebSocketURL:   wsURL,
		DexScreenerURL: "http://127.0.0.1:1",
		Commitment:     "confirmed",
		AckTimeout:     time.Second,
		ReadTimeout:    2 * time.Second,
		BackoffInitial: 10 * time.Millisecond,
		BackoffMax:     50 * time.Millisecond,
	}
}

func TestRunnerStreamsAndRecords(t *testing.T) {
	account := &pumpfun.BondingCurveAccount{
		VirtualSolReserves:   30_000_000_000,
		VirtualTokenReserves: 1_073_000_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
	rpcSrv := newMintRPC(t, 6)
	wsSrv := newCurveStream(t, account)

	cfg := testRunnerConfig(rpcSrv.URL, "ws"+strings.TrimPrefix(wsSrv.URL, "http"))
	cfg.RecordFile = filepath.Join(t.TempDir(), "prices.csv")

	runner, err := NewRunner(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		samples []monitor.PriceSample
	)
	sink := monitor.SinkFunc(func(_ context.Context, s monitor.PriceSample) error {
		mu.Lock()
		samples = append(samples, s)
		mu.Unlock()
		cancel()
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, []monitor.Target{{Market: testPair, Mint: testMint}}, sink)
	}()

	select {
	case err := <-done:
		require.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}

	mu.Lock()
	require.Len(t, samples, 1)
	got := samples[0]
	mu.Unlock()
	assert.Equal(t, uint64(42), got.Slot)
	assert.Equal(t, uint8(6), got.Decimals)
	assert.True(t, got.Price.Equal(pumpfun.CalculatePrice(account.VirtualSolReserves, account.VirtualTokenReserves, 6)))

	require.NoError(t, runner.Shutdown(context.Background()))

	f, err := os.Open(cfg.RecordFile)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2, "header and one price")
	assert.Contains(t, lines[1], testPair.String())
}

func TestRunnerNoTargets(t *testing.T) {
	runner, err := NewRunner(testRunnerConfig("http://127.0.0.1:1", "ws://127.0.0.1:1"), zap.NewNop())
	require.NoError(t, err)

	err = runner.Run(context.Background(), nil, monitor.SinkFunc(func(context.Context, monitor.PriceSample) error { return nil }))
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestRunnerReturnsResolveError(t *testing.T) {
	rpcSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(rpcSrv.Close)

	runner, err := NewRunner(testRunnerConfig(rpcSrv.URL, "ws://127.0.0.1:1"), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = runner.Run(ctx, []monitor.Target{{Market: testPair, Mint: testMint}},
		monitor.SinkFunc(func(context.Context, monitor.PriceSample) error { return nil }))
	assert.ErrorIs(t, err, monitor.ErrResolveDecimals)
}

func TestRunnerSurfacesResolveErrorAfterCancel(t *testing.T) {
	account := &pumpfun.BondingCurveAccount{
		VirtualSolReserves:   30_000_000_000,
		VirtualTokenReserves: 1_073_000_000_000_000,
	}
	rpcSrv := newMintRPC(t, 6)
	wsSrv := newCurveStream(t, account)

	runner, err := NewRunner(testRunnerConfig(rpcSrv.URL, "ws"+strings.TrimPrefix(wsSrv.URL, "http")), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = runner.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := monitor.SinkFunc(func(context.Context, monitor.PriceSample) error {
		cancel()
		return nil
	})

	unlisted := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, []monitor.Target{
			{Market: testPair, Mint: testMint},
			{Mint: unlisted},
		}, sink)
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, monitor.ErrResolvePair)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestResolvePairDefaultEndpoint(t *testing.T) {
	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	var requested string
	orig := http.DefaultTransport
	http.DefaultTransport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		requested = r.URL.String()
		body := `{"pairs":[{"chainId":"solana","dexId":"pumpfun","pairAddress":"` + testPair.String() + `"}]}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})
	t.Cleanup(func() { http.DefaultTransport = orig })

	runner, err := NewRunner(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = runner.Shutdown(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pair, err := runner.ResolvePair(ctx, testMint)
	require.NoError(t, err)
	assert.Equal(t, testPair, pair)
	assert.Equal(t, "https://api.dexscreener.com/latest/dex/tokens/"+testMint.String(), requested)
}

func TestTargets(t *testing.T) {
	cfg := &config.Config{Markets: []config.MarketConfig{
		{Mint: testMint.String(), Pair: testPair.String()},
		{Mint: testMint.String()},
	}}

	t.Run("positional pair and mint", func(t *testing.T) {
		targets, err := Targets(cfg, []string{testPair.String(), testMint.String()}, "")
		require.NoError(t, err)
		assert.Equal(t, []monitor.Target{{Market: testPair, Mint: testMint}}, targets)
	})

	t.Run("mint flag leaves market to resolve", func(t *testing.T) {
		targets, err := Targets(cfg, nil, testMint.String())
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.True(t, targets[0].Market.IsZero())
	})

	t.Run("configured markets", func(t *testing.T) {
		targets, err := Targets(cfg, nil, "")
		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, testPair, targets[0].Market)
		assert.True(t, targets[1].Market.IsZero())
	})

	t.Run("wrong argument count", func(t *testing.T) {
		_, err := Targets(cfg, []string{testPair.String()}, "")
		assert.Error(t, err)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := Targets(cfg, []string{"not-a-key", testMint.String()}, "")
		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := Targets(&config.Config{}, nil, "")
		assert.ErrorIs(t, err, ErrNoTargets)
	})
}

func TestLoggerConfig(t *testing.T) {
	lc := LoggerConfig(&config.Config{LogFile: "x.log", DebugLogging: true}, false)
	assert.Equal(t, "x.log", lc.LogFile)
	assert.True(t, lc.Development)
	assert.False(t, lc.Console)
}
