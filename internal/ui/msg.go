package ui

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
)

// Tea message types sent from watcher sessions to the board

// PriceMsg carries a delivered price.
type PriceMsg struct {
	Sample monitor.PriceSample
}

// StateMsg reports a connection state change of one market.
type StateMsg struct {
	Market solana.PublicKey
	From   monitor.State
	To     monitor.State
}

// FailureMsg reports a notification that did not produce a price.
type FailureMsg struct {
	Market solana.PublicKey
	Err    error
}

// BackoffMsg reports a scheduled reconnect.
type BackoffMsg struct {
	Market solana.PublicKey
	Delay  time.Duration
}

// WatchStoppedMsg is sent once all sessions returned.
type WatchStoppedMsg struct {
	Err error
}

type logTickMsg time.Time
