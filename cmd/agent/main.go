package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/agent"
	"github.com/hostpulse/agent/internal/config"
	"github.com/hostpulse/agent/internal/infra/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting hostpulse-agent",
		zap.String("version", config.Version),
		zap.String("build_time", config.BuildTime),
		zap.Bool("debug", cfg.Debug),
	)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	a, err := agent.New(cfg, log)
	if err != nil {
		log.Error("failed to create agent", zap.Error(err))
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.Error("agent exited with error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("agent stopped cleanly")
}
