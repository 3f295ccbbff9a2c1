// internal/utils/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
)

var allStates = []monitor.State{
	monitor.StateDisconnected,
	monitor.StateConnecting,
	monitor.StateAwaitingAck,
	monitor.StateStreaming,
	monitor.StateBackoff,
}

var _ monitor.Observer = (*Collector)(nil)

// StateChanged отмечает текущее состояние сессии рынка.
func (c *Collector) StateChanged(market solana.PublicKey, from, to monitor.State) {
	m := market.String()
	for _, s := range allStates {
		v := 0.0
		if s == to {
			v = 1
		}
		c.sessionState.WithLabelValues(m, s.String()).Set(v)
	}
	c.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// PriceDelivered записывает последнюю цену, слот и признак завершения кривой.
func (c *Collector) PriceDelivered(sample monitor.PriceSample) {
	m := sample.Market.String()
	c.pricesDelivered.WithLabelValues(m).Inc()
	c.lastPrice.WithLabelValues(m, sample.Mint.String()).Set(sample.Price.InexactFloat64())
	c.lastSlot.WithLabelValues(m).Set(float64(sample.Slot))

	complete := 0.0
	if sample.Complete {
		complete = 1
	}
	c.curveGraduated.WithLabelValues(m).Set(complete)
}

// MessageFailed считает сообщения, не дошедшие до потребителя.
func (c *Collector) MessageFailed(market solana.PublicKey, _ error) {
	c.messageFailures.WithLabelValues(market.String()).Inc()
}

// BackoffScheduled записывает задержку перед переподключением.
func (c *Collector) BackoffScheduled(market solana.PublicKey, delay time.Duration) {
	c.reconnectDelay.WithLabelValues(market.String()).Observe(delay.Seconds())
}

// RecordResolverLatency записывает длительность обращения к RPC или DexScreener.
func (c *Collector) RecordResolverLatency(resolver string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.resolverLatency.WithLabelValues(resolver, status).Observe(duration.Seconds())
}

// InstrumentDecimals оборачивает DecimalsResolver замером задержки.
func (c *Collector) InstrumentDecimals(r monitor.DecimalsResolver) monitor.DecimalsResolver {
	return &timedDecimals{next: r, c: c}
}

// InstrumentPairs оборачивает PairResolver замером задержки.
func (c *Collector) InstrumentPairs(r monitor.PairResolver) monitor.PairResolver {
	return &timedPairs{next: r, c: c}
}

type timedDecimals struct {
	next monitor.DecimalsResolver
	c    *Collector
}

func (t *timedDecimals) TokenDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	start := time.Now()
	decimals, err := t.next.TokenDecimals(ctx, mint)
	t.c.RecordResolverLatency("decimals", time.Since(start), err)
	return decimals, err
}

type timedPairs struct {
	next monitor.PairResolver
	c    *Collector
}

func (t *timedPairs) FindPairAddress(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	start := time.Now()
	pair, err := t.next.FindPairAddress(ctx, mint)
	t.c.RecordResolverLatency("pair", time.Since(start), err)
	return pair, err
}

// Handler отдает метрики в формате Prometheus.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve поднимает /metrics на addr и останавливается вместе с ctx.
func (c *Collector) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	})
	defer stop()

	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
