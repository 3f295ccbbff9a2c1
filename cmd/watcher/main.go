// ====================================
// File: cmd/watcher/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/bot"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/config"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/ui"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "watcher:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("watcher", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON or YAML config file")
	mint := fs.String("mint", "", "token mint; the bonding curve is looked up on DexScreener")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: watcher [flags] [<pair> <mint>]")
		fs.PrintDefaults()
	}
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
		fs.Usage()
		return err
	}

	appLogger, err := logger.New(bot.LoggerConfig(cfg, true))
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		_ = appLogger.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := bot.NewRunner(cfg, appLogger.WithComponent("runner"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := runner.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("Shutdown completed with errors", zap.Error(err))
		}
	}()

	return runner.Run(ctx, targets, ui.NewLineSink(os.Stdout, len(targets) > 1))
}
