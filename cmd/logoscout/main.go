// Command logoscout reads newline-separated domains from stdin, crawls
// them with bounded concurrency, and writes a CSV of discovered logo and
// favicon URLs to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/logoscout/logoscout/internal/app"
	"github.com/logoscout/logoscout/internal/config"
	"github.com/logoscout/logoscout/internal/logging"
)

func main() {
	flags := pflag.NewFlagSet("logoscout", pflag.ExitOnError)
	cfgFile := flags.String("config", "", "path to config file")
	concurrency := flags.Int("concurrency", 0, "max simultaneous fetches (overrides config)")
	workers := flags.Int("workers", 0, "worker pool size (overrides config)")
	timeout := flags.Int("timeout", 0, "request timeout in seconds (overrides config)")
	metricsPort := flags.Int("metrics-port", 0, "serve Prometheus metrics on this port")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *concurrency > 0 {
		cfg.Crawler.Concurrency = *concurrency
	}
	if *workers > 0 {
		cfg.Crawler.Workers = *workers
	}
	if *timeout > 0 {
		cfg.HTTP.TimeoutSeconds = *timeout
	}
	if *metricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = *metricsPort
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, logger).Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
