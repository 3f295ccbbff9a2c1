package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/pumpfun"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
)

var (
	otherMarket = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testMint    = solana.MustPublicKeyFromBase58("FwZDuAphAwfZz5Myg6zFZCErwkqD1kR9sjU26V3xpump")
)

func priceMsg(market solana.PublicKey, slot uint64, price string, complete bool) PriceMsg {
	return PriceMsg{Sample: monitor.PriceSample{
		Market:   market,
		Mint:     testMint,
		Price:    decimal.RequireFromString(price),
		Decimals: 6,
		Slot:     slot,
		Complete: complete,
		Account: pumpfun.BondingCurveAccount{
			VirtualSolReserves:   30_000_000_000,
			VirtualTokenReserves: 1_073_000_000_000_000,
			TokenTotalSupply:     1_000_000_000_000_000,
		},
		ReceivedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
}

func update(t *testing.T, b *Board, msg tea.Msg) tea.Cmd {
	t.Helper()
	model, cmd := b.Update(msg)
	require.Same(t, b, model)
	return cmd
}

func TestBoardAppliesPrices(t *testing.T) {
	b := NewBoard(make(chan tea.Msg), nil)

	cmd := update(t, b, priceMsg(testMarket, 10, "0.000027958993", false))
	assert.NotNil(t, cmd, "board keeps listening after a price")
	update(t, b, priceMsg(testMarket, 11, "0.000028", false))
	update(t, b, priceMsg(otherMarket, 5, "0.00001", true))

	require.Len(t, b.rows, 2)
	row := b.index[testMarket]
	assert.Equal(t, uint64(11), row.slot)
	assert.True(t, row.price.Equal(decimal.RequireFromString("0.000028")))
	assert.Equal(t, 2, row.spark.Len())
	assert.True(t, b.index[otherMarket].complete)

	view := b.View()
	assert.Contains(t, view, "0.000028000000")
	assert.Contains(t, view, "UI Display Price:")
}

func TestBoardTracksConnectionState(t *testing.T) {
	b := NewBoard(make(chan tea.Msg), nil)

	update(t, b, StateMsg{Market: testMarket, From: monitor.StateAwaitingAck, To: monitor.StateBackoff})
	update(t, b, BackoffMsg{Market: testMarket, Delay: 4 * time.Second})
	update(t, b, FailureMsg{Market: testMarket, Err: errors.New("short buffer")})

	row := b.index[testMarket]
	assert.Equal(t, monitor.StateBackoff, row.state)
	assert.Equal(t, "retry 4s", stateLabel(row))
	assert.Equal(t, 1, row.failures)

	update(t, b, StateMsg{Market: testMarket, From: monitor.StateAwaitingAck, To: monitor.StateStreaming})
	assert.Zero(t, row.retryIn)
	assert.Equal(t, "streaming", stateLabel(row))
}

func TestBoardNavigationAndQuit(t *testing.T) {
	b := NewBoard(make(chan tea.Msg), nil)
	update(t, b, priceMsg(testMarket, 1, "1", false))
	update(t, b, priceMsg(otherMarket, 1, "2", false))

	update(t, b, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, b.selected)
	update(t, b, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, b.selected, "selection stays on the last row")
	update(t, b, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, b.selected)

	cmd := update(t, b, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBoardLogsPane(t *testing.T) {
	logs := logger.NewLogBuffer(20)
	log := zap.New(logs.Core(zapcore.InfoLevel))
	log.Warn("WebSocket error, reconnecting")

	b := NewBoard(make(chan tea.Msg), logs)
	assert.True(t, b.showLogs)
	assert.Contains(t, b.View(), "WebSocket error, reconnecting")

	update(t, b, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	assert.False(t, b.showLogs)
	assert.NotContains(t, b.View(), "WebSocket error, reconnecting")
}

func TestBoardWaitsForMessages(t *testing.T) {
	msgs := make(chan tea.Msg, 1)
	b := NewBoard(msgs, nil)

	msgs <- StateMsg{Market: testMarket, To: monitor.StateConnecting}
	got := waitForMsg(msgs)()
	assert.IsType(t, StateMsg{}, got)

	close(msgs)
	assert.IsType(t, WatchStoppedMsg{}, waitForMsg(msgs)())

	update(t, b, WatchStoppedMsg{Err: errors.New("resolve failed")})
	assert.Contains(t, b.View(), "resolve failed")
}
