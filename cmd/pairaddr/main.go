// ====================================
// File: cmd/pairaddr/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/rovshanmuradov/pumpfun-watcher/internal/bot"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/config"
	"github.com/rovshanmuradov/pumpfun-watcher/internal/utils/logger"
)

// pairaddr prints the pump.fun bonding curve address of a token mint.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pairaddr:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("pairaddr", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON or YAML config file")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: pairaddr [flags] <mint>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one mint address, got %d argument(s)", fs.NArg())
	}

	cfg, err := config.LoadConfig(*configPath, fs)
	if err != nil {
		return err
	}
	target, err := config.ParseTarget("", fs.Arg(0))
	if err != nil {
		return err
	}

	// stdout занят адресом, логи только в файл
	appLogger, err := logger.New(bot.LoggerConfig(cfg, false))
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		_ = appLogger.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := bot.NewRunner(cfg, appLogger.WithOperation("pair_lookup"))
	if err != nil {
		return err
	}
	defer runner.Shutdown(context.Background())

	pair, err := runner.ResolvePair(ctx, target.Mint)
	if err != nil {
		return err
	}
	fmt.Println(pair.String())
	return nil
}
