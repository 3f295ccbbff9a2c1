package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
)

// UpdateSender forwards watcher events to the board. State and failure events
// never block a session; when the channel is full they are dropped and counted.
// Prices wait for room so the board sees them in order.
type UpdateSender struct {
	msgChan        chan tea.Msg
	droppedUpdates uint64
	sentUpdates    uint64
	logger         *zap.Logger
	statsInterval  time.Duration
	stopStats      chan struct{}
	closeOnce      sync.Once
}

var (
	_ monitor.Sink     = (*UpdateSender)(nil)
	_ monitor.Observer = (*UpdateSender)(nil)
)

// NewUpdateSender creates a sender with a buffer of size messages.
func NewUpdateSender(size int, logger *zap.Logger) *UpdateSender {
	us := &UpdateSender{
		msgChan:       make(chan tea.Msg, size),
		logger:        logger.Named("ui-updates"),
		statsInterval: 30 * time.Second,
		stopStats:     make(chan struct{}),
	}
	go us.logStats()
	return us
}

// Messages is read by the board.
func (us *UpdateSender) Messages() <-chan tea.Msg {
	return us.msgChan
}

// SendUpdate sends a message to UI without blocking
func (us *UpdateSender) SendUpdate(msg tea.Msg) {
	select {
	case us.msgChan <- msg:
		atomic.AddUint64(&us.sentUpdates, 1)
	default:
		atomic.AddUint64(&us.droppedUpdates, 1)
	}
}

// OnPrice implements monitor.Sink.
func (us *UpdateSender) OnPrice(ctx context.Context, sample monitor.PriceSample) error {
	select {
	case us.msgChan <- PriceMsg{Sample: sample}:
		atomic.AddUint64(&us.sentUpdates, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (us *UpdateSender) StateChanged(market solana.PublicKey, from, to monitor.State) {
	us.SendUpdate(StateMsg{Market: market, From: from, To: to})
}

func (us *UpdateSender) PriceDelivered(monitor.PriceSample) {}

func (us *UpdateSender) MessageFailed(market solana.PublicKey, err error) {
	us.SendUpdate(FailureMsg{Market: market, Err: err})
}

func (us *UpdateSender) BackoffScheduled(market solana.PublicKey, delay time.Duration) {
	us.SendUpdate(BackoffMsg{Market: market, Delay: delay})
}

// GetStats returns current statistics
func (us *UpdateSender) GetStats() (sent, dropped uint64) {
	sent = atomic.LoadUint64(&us.sentUpdates)
	dropped = atomic.LoadUint64(&us.droppedUpdates)
	return sent, dropped
}

func (us *UpdateSender) logStats() {
	ticker := time.NewTicker(us.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, dropped := us.GetStats()
			if dropped > 0 {
				us.logger.Warn("UI update statistics",
					zap.Uint64("sent", sent),
					zap.Uint64("dropped", dropped),
					zap.Float64("drop_rate", float64(dropped)/float64(sent+dropped)*100))
			}
		case <-us.stopStats:
			return
		}
	}
}

// Close stops the statistics goroutine
func (us *UpdateSender) Close() {
	us.closeOnce.Do(func() { close(us.stopStats) })
}
