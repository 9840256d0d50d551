// Package main wires together the inspection service binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/app"
	"github.com/JakeFAU/wp-inspector/internal/config"
	"github.com/JakeFAU/wp-inspector/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		logger.Error("server exited", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
