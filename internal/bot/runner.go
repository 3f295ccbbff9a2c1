// internal/bot/runner.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/blockchain/solbc"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/config"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/dex/dexscreener"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/export"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/monitor"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/metrics"
)

var ErrNoTargets = errors.New("no markets to watch: pass <pair> <mint>, --mint or configure markets")

// RunnerOption настраивает Runner.
type RunnerOption func(*Runner)

// WithDialer подменяет websocket-транспорт (тесты, прокси).
func WithDialer(d monitor.Dialer) RunnerOption {
	return func(r *Runner) {
		r.dialer = d
	}
}

// Runner связывает конфигурацию, резолверы, метрики и запись цен в один запуск.
type Runner struct {
	logger   *zap.Logger
	config   *config.Config
	rpc      *solbc.Client
	dex      *dexscreener.Client
	metrics  *metrics.Collector
	recorder *export.PriceRecorder
	dialer   monitor.Dialer
	shutdown *ShutdownHandler
}

// NewRunner: принимает cfg и logger
func NewRunner(cfg *config.Config, logger *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		logger:   logger,
		config:   cfg,
		rpc:      solbc.NewClient(cfg.RPCURL, logger),
		dex:      dexscreener.NewClient(cfg.DexScreenerURL, logger),
		metrics:  metrics.NewCollector(),
		shutdown: NewShutdownHandler(logger, 10*time.Second),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.shutdown.AddFunc("dexscreener", func() error {
		r.dex.Close()
		return nil
	})

	if cfg.RecordFile != "" {
		recorder, err := export.NewPriceRecorder(cfg.RecordFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open price record: %w", err)
		}
		r.recorder = recorder
		r.shutdown.Add("recorder", recorder)
	}

	return r, nil
}

// Metrics возвращает коллектор, общий для всех сессий запуска.
func (r *Runner) Metrics() *metrics.Collector {
	return r.metrics
}

func (r *Runner) watcherConfig() monitor.WatcherConfig {
	wc := monitor.DefaultWatcherConfig(r.config.WebSocketURL)
	wc.Commitment = rpc.CommitmentType(r.config.Commitment)
	wc.AckTimeout = r.config.AckTimeout
	wc.ReadTimeout = r.config.ReadTimeout
	wc.PingInterval = r.config.PingInterval
	wc.BackoffInitial = r.config.BackoffInitial
	wc.BackoffMax = r.config.BackoffMax
	return wc
}

// NewWatcher собирает watcher с инструментированными резолверами.
// Метрики наблюдают всегда, observers добавляются к ним.
func (r *Runner) NewWatcher(observers ...monitor.Observer) *monitor.Watcher {
	return monitor.NewWatcher(
		r.watcherConfig(),
		r.metrics.InstrumentDecimals(r.rpc),
		r.dialer,
		r.logger,
		monitor.WithPairResolver(r.metrics.InstrumentPairs(r.dex)),
		monitor.WithObserver(monitor.MultiObserver(append([]monitor.Observer{r.metrics}, observers...)...)),
	)
}

// Run следит за targets до отмены ctx. Цены уходят в sink и, если задан
// record_file, в файл. Отмена ctx считается штатным завершением.
func (r *Runner) Run(ctx context.Context, targets []monitor.Target, sink monitor.Sink, observers ...monitor.Observer) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	if r.recorder != nil {
		sink = monitor.MultiSink(sink, r.recorder)
	}

	w := r.NewWatcher(observers...)
	r.logger.Info(fmt.Sprintf("🚀 Watching %d market(s)", len(targets)),
		zap.String("websocket", r.config.WebSocketURL),
		zap.String("commitment", r.config.Commitment))

	g, gctx := errgroup.WithContext(ctx)

	if r.config.MetricsAddr != "" {
		g.Go(func() error {
			return r.metrics.Serve(gctx, r.config.MetricsAddr, r.logger)
		})
	}

	g.Go(func() error {
		if err := w.WatchAll(gctx, targets, sink); err != nil && (ctx.Err() == nil || isResolveError(err)) {
			return err
		}
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		r.logger.Info("✅ Watch stopped", zap.Error(context.Cause(ctx)))
		// Рынок, который так и не запустился, остается ошибкой и после отмены.
		if isResolveError(err) {
			return err
		}
		return nil
	}
	return err
}

func isResolveError(err error) bool {
	return errors.Is(err, monitor.ErrResolveDecimals) || errors.Is(err, monitor.ErrResolvePair)
}

// ResolvePair ищет адрес кривой для mint через DexScreener.
func (r *Runner) ResolvePair(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	return r.metrics.InstrumentPairs(r.dex).FindPairAddress(ctx, mint)
}

// Shutdown закрывает ресурсы запуска в обратном порядке.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.logger.Info("👋 Watcher shutting down gracefully")
	return r.shutdown.Shutdown(ctx)
}

// Targets выбирает рынки: позиционные <pair> <mint>, затем --mint,
// затем markets из конфигурации.
func Targets(cfg *config.Config, args []string, mint string) ([]monitor.Target, error) {
	var parsed []config.Target

	switch {
	case len(args) == 2:
		t, err := config.ParseTarget(args[0], args[1])
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, t)
	case len(args) != 0:
		return nil, fmt.Errorf("expected <pair> <mint>, got %d argument(s)", len(args))
	case mint != "":
		t, err := config.ParseTarget("", mint)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, t)
	default:
		var err error
		if parsed, err = cfg.Targets(); err != nil {
			return nil, err
		}
	}

	if len(parsed) == 0 {
		return nil, ErrNoTargets
	}

	targets := make([]monitor.Target, 0, len(parsed))
	for _, t := range parsed {
		targets = append(targets, monitor.Target{Market: t.Pair, Mint: t.Mint})
	}
	return targets, nil
}

// LoggerConfig переводит настройки запуска в конфигурацию логгера.
func LoggerConfig(cfg *config.Config, console bool) *logger.Config {
	lc := logger.DefaultConfig()
	lc.LogFile = cfg.LogFile
	lc.Development = cfg.DebugLogging
	lc.Console = console
	return lc
}
