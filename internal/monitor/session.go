// internal/monitor/session.go
package monitor

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/pumpfun"
)

// session is the runtime state of one watched market, owned by a single goroutine.
type session struct {
	w         *Watcher
	id        string
	market    solana.PublicKey
	mint      solana.PublicKey
	decimals  uint8
	machine   *Machine
	conn      Conn
	requestID uint64
	graduated bool
	logger    *zap.Logger
}

func newSession(w *Watcher, market, mint solana.PublicKey, decimals uint8) *session {
	id := uuid.New().String()
	return &session{
		w:        w,
		id:       id,
		market:   market,
		mint:     mint,
		decimals: decimals,
		machine:  NewMachine(NewBackoff(w.cfg.BackoffInitial, w.cfg.BackoffMax)),
		logger: w.logger.With(
			zap.String("session_id", id),
			zap.String("market", market.String()),
			zap.String("mint", mint.String()),
		),
	}
}

// run drives the session until ctx is done.
func (s *session) run(ctx context.Context, sink Sink) error {
	s.logger.Info("Starting bonding curve watch", zap.Uint8("decimals", s.decimals))
	defer s.logger.Info("Bonding curve watch stopped")

	s.fire(EventStart)
	for {
		err := s.connectAndStream(ctx, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.fire(EventConnFailed)
		delay := s.machine.Delay()
		s.logConnFailure(err, delay)
		s.w.observer.BackoffScheduled(s.market, delay)

		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
		s.fire(EventBackoffElapsed)
	}
}

// connectAndStream returns when the connection fails or ctx is done.
// The connection is always closed on return.
func (s *session) connectAndStream(ctx context.Context, sink Sink) error {
	conn, err := s.w.dialer.Dial(ctx, s.w.cfg.WebSocketURL)
	if err != nil {
		return &ConnError{Stage: StageConnect, Err: err}
	}
	s.conn = conn
	defer s.closeConn()

	// Unblocks pending reads on cancellation.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.fire(EventConnected)
	s.logger.Info("Connected to WebSocket", zap.String("url", s.w.cfg.WebSocketURL))

	if s.w.cfg.PingInterval > 0 {
		pingCtx, cancelPing := context.WithCancel(ctx)
		defer cancelPing()
		go s.keepalive(pingCtx, conn)
	}

	s.requestID++
	requestID := s.requestID
	if err := conn.WriteJSON(newSubscribeRequest(requestID, s.market, s.w.cfg.Commitment)); err != nil {
		return &ConnError{Stage: StageSubscribe, Err: err}
	}

	raw, err := conn.ReadMessage(s.w.cfg.AckTimeout)
	if err != nil {
		return &ConnError{Stage: StageAck, Err: err}
	}
	subscription, err := parseAck(raw, requestID)
	if err != nil {
		return &ConnError{Stage: StageAck, Err: err}
	}

	s.fire(EventAcked)
	s.logger.Info("Subscribed to bonding curve", zap.Uint64("subscription", subscription))

	for {
		raw, err := conn.ReadMessage(s.w.cfg.ReadTimeout)
		if err != nil {
			return &ConnError{Stage: StageRead, Err: err}
		}
		s.handleMessage(ctx, raw, sink)
	}
}

// handleMessage prices one inbound message. Failures never end the stream.
func (s *session) handleMessage(ctx context.Context, raw []byte, sink Sink) {
	update, ok, err := parseNotification(raw)
	if err != nil {
		s.messageFailed("Failed to parse notification", err)
		return
	}
	if !ok {
		s.logger.Debug("Ignoring non-notification message", zap.ByteString("message", raw))
		return
	}

	account, err := pumpfun.DecodeBondingCurve(update.Data)
	if err != nil {
		s.messageFailed("Failed to parse bonding curve data", err)
		return
	}

	if account.Complete && !s.graduated {
		s.graduated = true
		s.logger.Warn("Bonding curve graduated, price no longer moves on this curve")
	}

	sample := PriceSample{
		Market:     s.market,
		Mint:       s.mint,
		Price:      pumpfun.CurvePrice(account, s.decimals),
		Decimals:   s.decimals,
		Slot:       update.Slot,
		Complete:   account.Complete,
		Account:    *account,
		ReceivedAt: s.w.now(),
	}

	if err := sink.OnPrice(ctx, sample); err != nil {
		s.messageFailed("Price sink failed", err)
		return
	}

	s.fire(EventMessage)
	s.w.observer.PriceDelivered(sample)
	s.logger.Debug("Live price",
		zap.String("price", sample.Price.String()),
		zap.Uint64("slot", sample.Slot))
}

func (s *session) messageFailed(msg string, err error) {
	s.fire(EventMessageFailed)
	s.w.observer.MessageFailed(s.market, err)
	s.logger.Error(msg, zap.Error(err))
}

func (s *session) keepalive(ctx context.Context, conn Conn) {
	ticker := time.NewTicker(s.w.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				s.logger.Debug("Ping failed", zap.Error(err))
			}
		}
	}
}

func (s *session) closeConn() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("Error closing WebSocket", zap.Error(err))
	}
	s.conn = nil
	s.logger.Info("WebSocket closed")
}

func (s *session) fire(e Event) {
	prev, err := s.machine.Fire(e)
	if err != nil {
		s.logger.Error("Unexpected session event", zap.Error(err))
		return
	}
	if next := s.machine.State(); next != prev {
		s.logger.Debug("Session state changed",
			zap.Stringer("from", prev),
			zap.Stringer("to", next))
		s.w.observer.StateChanged(s.market, prev, next)
	}
}

func (s *session) logConnFailure(err error, delay time.Duration) {
	fields := []zap.Field{zap.Error(err), zap.Duration("retry_in", delay)}
	if connErr, ok := err.(*ConnError); ok {
		fields = append(fields, zap.String("stage", string(connErr.Stage)), zap.Bool("timeout", connErr.Timeout()))
	}
	s.logger.Warn("WebSocket error, reconnecting", fields...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
