package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/bot"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/config"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/ui"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui:", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	fs := pflag.NewFlagSet("tui", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON or YAML config file")
	mint := fs.String("mint", "", "token mint; the bonding curve is looked up on DexScreener")
	config.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.LoadConfig(*configPath, fs)
	if err != nil {
		return err
	}
	targets, err := bot.Targets(cfg, fs.Args(), *mint)
	if err != nil {
		return err
	}

	// Терминал занят TUI: консольный вывод выключен, свежие записи идут в буфер панели логов
	logLevel := zapcore.InfoLevel
	if cfg.DebugLogging {
		logLevel = zapcore.DebugLevel
	}
	logs := logger.NewLogBuffer(200)
	appLogger, err := logger.New(bot.LoggerConfig(cfg, false), logs.Core(logLevel))
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		_ = appLogger.Close()
	}()

	appLogger.Info("🚀 Starting pump.fun price board", zap.Int("markets", len(targets)))

	// Create context with signal handling
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := bot.NewRunner(cfg, appLogger.WithComponent("runner"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = runner.Shutdown(shutdownCtx)
	}()

	updates := ui.NewUpdateSender(256, appLogger.Logger)
	defer updates.Close()

	// после паники доска пересоздаётся на том же канале, наблюдение не прерывается
	recovery := ui.NewRecoveryHandler(appLogger.Logger, func() (tea.Model, []tea.ProgramOption) {
		board := ui.NewSafeUIWrapper(ui.NewBoard(updates.Messages(), logs), appLogger.Logger)
		return board, []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(rootCtx)}
	})

	watchCtx, cancelWatch := context.WithCancel(rootCtx)
	defer cancelWatch()

	var g errgroup.Group
	g.Go(func() error {
		err := runner.Run(watchCtx, targets, updates, updates)
		if err != nil {
			appLogger.Error("💥 Watch failed", zap.Error(err))
		}
		// доска остаётся открытой и показывает причину остановки
		updates.SendUpdate(ui.WatchStoppedMsg{Err: err})
		return err
	})

	runErr := recovery.RunWithRecovery(rootCtx)
	cancelWatch()
	watchErr := g.Wait()

	if runErr != nil {
		return fmt.Errorf("TUI application failed: %w", runErr)
	}
	appLogger.Info("🛑 Shutting down TUI application")
	return watchErr
}
