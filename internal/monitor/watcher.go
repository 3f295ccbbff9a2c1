// internal/monitor/watcher.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/pumpfun"
)

const (
	DefaultAckTimeout   = 10 * time.Second
	DefaultReadTimeout  = 30 * time.Second
	DefaultPingInterval = 10 * time.Second
)

var (
	ErrResolveDecimals = errors.New("failed to resolve token decimals")
	ErrResolvePair     = errors.New("failed to resolve pair address")
)

// WatcherConfig holds the streaming endpoint and the timing of a watch.
type WatcherConfig struct {
	WebSocketURL   string
	Commitment     rpc.CommitmentType
	AckTimeout     time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration // 0 disables keepalive pings
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// DefaultWatcherConfig returns the standard timings for wsURL.
func DefaultWatcherConfig(wsURL string) WatcherConfig {
	return WatcherConfig{
		WebSocketURL:   wsURL,
		Commitment:     rpc.CommitmentConfirmed,
		AckTimeout:     DefaultAckTimeout,
		ReadTimeout:    DefaultReadTimeout,
		PingInterval:   DefaultPingInterval,
		BackoffInitial: DefaultBackoffInitial,
		BackoffMax:     DefaultBackoffMax,
	}
}

func (c *WatcherConfig) applyDefaults() {
	if c.Commitment == "" {
		c.Commitment = rpc.CommitmentConfirmed
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.PingInterval < 0 {
		c.PingInterval = 0
	}
}

// DecimalsResolver looks up the decimals of a token mint.
type DecimalsResolver interface {
	TokenDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

// PairResolver finds the bonding curve account of a token mint.
type PairResolver interface {
	FindPairAddress(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error)
}

// PriceSample is one priced bonding curve update.
type PriceSample struct {
	Market     solana.PublicKey
	Mint       solana.PublicKey
	Price      decimal.Decimal
	Decimals   uint8
	Slot       uint64
	Complete   bool
	Account    pumpfun.BondingCurveAccount
	ReceivedAt time.Time
}

// Sink receives prices in notification order. The next notification is not
// processed until OnPrice returns.
type Sink interface {
	OnPrice(ctx context.Context, sample PriceSample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, sample PriceSample) error

func (f SinkFunc) OnPrice(ctx context.Context, sample PriceSample) error {
	return f(ctx, sample)
}

// MultiSink delivers each sample to every sink in order. All sinks are called
// even if one fails; the errors are joined.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, sample PriceSample) error {
		var errs []error
		for _, s := range sinks {
			if err := s.OnPrice(ctx, sample); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Observer is notified about session progress. Implementations must be safe
// for concurrent use when several markets are watched at once.
type Observer interface {
	StateChanged(market solana.PublicKey, from, to State)
	PriceDelivered(sample PriceSample)
	MessageFailed(market solana.PublicKey, err error)
	BackoffScheduled(market solana.PublicKey, delay time.Duration)
}

type nopObserver struct{}

func (nopObserver) StateChanged(solana.PublicKey, State, State) {}
func (nopObserver) PriceDelivered(PriceSample) {}
func (nopObserver) MessageFailed(solana.PublicKey, error) {}
func (nopObserver) BackoffScheduled(solana.PublicKey, time.Duration) {}

type multiObserver []Observer

// MultiObserver fans every notification out to observers; nil entries are skipped.
func MultiObserver(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 0 {
		return nopObserver{}
	}
	return m
}

func (m multiObserver) StateChanged(market solana.PublicKey, from, to State) {
	for _, o := range m {
		o.StateChanged(market, from, to)
	}
}

func (m multiObserver) PriceDelivered(sample PriceSample) {
	for _, o := range m {
		o.PriceDelivered(sample)
	}
}

func (m multiObserver) MessageFailed(market solana.PublicKey, err error) {
	for _, o := range m {
		o.MessageFailed(market, err)
	}
}

func (m multiObserver) BackoffScheduled(market solana.PublicKey, delay time.Duration) {
	for _, o := range m {
		o.BackoffScheduled(market, delay)
	}
}

// Stage names the step of the connection lifecycle that failed.
type Stage string

const (
	StageConnect   Stage = "connect"
	StageSubscribe Stage = "subscribe"
	StageAck       Stage = "ack"
	StageRead      Stage = "read"
)

// ConnError is a connection-level failure; the session recovers from it by reconnecting.
type ConnError struct {
	Stage Stage
	Err   error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline expiring.
func (e *ConnError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithObserver attaches an observer to every session.
func WithObserver(o Observer) Option {
	return func(w *Watcher) {
		if o != nil {
			w.observer = o
		}
	}
}

// WithPairResolver enables WatchAll targets without a market address.
func WithPairResolver(r PairResolver) Option {
	return func(w *Watcher) {
		w.pairs = r
	}
}

// Watcher streams bonding curve prices. It holds no per-market state; every
// Watch call runs its own session.
type Watcher struct {
	cfg      WatcherConfig
	decimals DecimalsResolver
	pairs    PairResolver
	dialer   Dialer
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
}

// NewWatcher creates a watcher.
func NewWatcher(cfg WatcherConfig, decimals DecimalsResolver, dialer Dialer, logger *zap.Logger, opts ...Option) *Watcher {
	cfg.applyDefaults()
	if dialer == nil {
		dialer = NewWSDialer()
	}

	w := &Watcher{
		cfg:      cfg,
		decimals: decimals,
		dialer:   dialer,
		observer: nopObserver{},
		logger:   logger.Named("watcher"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch streams prices of the bonding curve at market, whose token is mint, into sink.
// It returns only when ctx is done or the token decimals cannot be resolved.
func (w *Watcher) Watch(ctx context.Context, market, mint solana.PublicKey, sink Sink) error {
	decimals, err := w.decimals.TokenDecimals(ctx, mint)
	if err != nil {
		w.logger.Error("Failed to fetch decimals, watch not started",
			zap.String("market", market.String()),
			zap.String("mint", mint.String()),
			zap.Error(err))
		return fmt.Errorf("%w for %s: %w", ErrResolveDecimals, mint, err)
	}

	s := newSession(w, market, mint, decimals)
	return s.run(ctx, sink)
}

// Target is a market to watch. A zero Market is resolved from Mint.
type Target struct {
	Market solana.PublicKey
	Mint   solana.PublicKey
}

// ResolveTarget fills in the market address of t when it is missing.
func (w *Watcher) ResolveTarget(ctx context.Context, t Target) (Target, error) {
	if !t.Market.IsZero() {
		return t, nil
	}
	if w.pairs == nil {
		return t, fmt.Errorf("%w for %s: no pair resolver configured", ErrResolvePair, t.Mint)
	}

	market, err := w.pairs.FindPairAddress(ctx, t.Mint)
	if err != nil {
		return t, fmt.Errorf("%w for %s: %w", ErrResolvePair, t.Mint, err)
	}
	t.Market = market
	return t, nil
}

// WatchAll runs an independent session per target and waits for all of them.
// A target that fails to resolve stops alone. Resolution errors take precedence
// over the cancellation error of the sessions that did run.
func (w *Watcher) WatchAll(ctx context.Context, targets []Target, sink Sink) error {
	var (
		g           errgroup.Group
		mu          sync.Mutex
		resolveErrs []error
	)
	recordResolve := func(err error) error {
		mu.Lock()
		resolveErrs = append(resolveErrs, err)
		mu.Unlock()
		return err
	}
	for _, target := range targets {
		g.Go(func() error {
			resolved, err := w.ResolveTarget(ctx, target)
			if err != nil {
				w.logger.Error("Failed to resolve market", zap.String("mint", target.Mint.String()), zap.Error(err))
				return recordResolve(err)
			}
			err = w.Watch(ctx, resolved.Market, resolved.Mint, sink)
			if errors.Is(err, ErrResolveDecimals) {
				return recordResolve(err)
			}
			return err
		})
	}
	err := g.Wait()
	if len(resolveErrs) > 0 {
		return errors.Join(resolveErrs...)
	}
	return err
}
