// Package agent wires the subsystems together and drives their lifecycle.
package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/adapter/httpserver"
	"github.com/hostpulse/agent/internal/config"
	"github.com/hostpulse/agent/internal/infra/collector"
	"github.com/hostpulse/agent/internal/infra/storage"
	"github.com/hostpulse/agent/internal/infra/system"
	"github.com/hostpulse/agent/internal/usecase/monitor"
	"github.com/hostpulse/agent/internal/usecase/publish"
)

const shutdownTimeout = 10 * time.Second

// Agent is the top-level application that orchestrates all subsystems.
type Agent struct {
	cfg    *config.Config
	logger *zap.Logger

	store     *storage.Store
	api       *collector.Client
	monitor   *monitor.Monitor
	inspector *system.Inspector

	publisher  *publish.Publisher
	httpServer *httpserver.Server
}

// New creates and wires all agent subsystems.
func New(cfg *config.Config, logger *zap.Logger) (*Agent, error) {
	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		api:       collector.NewClient(cfg.APIKey, cfg.CollectorURL, logger),
		monitor:   monitor.New(system.NewSampler(), cfg.HistorySize),
		inspector: system.NewInspector(),
	}, nil
}

// Run executes the agent lifecycle: bootstrap, publishing pipeline, HTTP
// server. It blocks until the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	agentID, err := a.store.AgentID(ctx)
	if err != nil {
		return fmt.Errorf("agent id: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	if info, err := a.inspector.Inspect(); err == nil {
		a.logger.Info("host cpu",
			zap.Int("physical_cores", info.PhysicalCores),
			zap.Int("logical_cores", info.LogicalCores),
			zap.String("model", info.ModelName),
		)
	} else {
		a.logger.Warn("cpu inspection failed", zap.Error(err))
	}

	// The collector being unreachable is not fatal: the local API still
	// serves and the retrying client picks shipments back up.
	if err := a.api.Ping(ctx); err != nil {
		a.logger.Warn("collector unreachable, reports will be retried", zap.Error(err))
	}

	// Shipments must survive signal cancellation so the final flush in
	// shutdown() can still reach the collector.
	a.publisher = publish.New(context.WithoutCancel(ctx), publish.Config{
		AgentID:        agentID,
		Hostname:       hostname,
		SampleInterval: a.cfg.SampleInterval,
		FlushInterval:  a.cfg.FlushInterval,
		BatchSize:      a.cfg.BatchSize,
		Workers:        a.cfg.Workers,
	}, a.monitor, a.api, a.store, a.logger)
	a.publisher.Start()

	api := httpserver.NewAPI(a.monitor, a.inspector, a.publisher, a.logger)
	a.httpServer = httpserver.NewServer(a.cfg.ListenPort, api, a.cfg.LocalSecret, a.logger)

	a.logger.Info("agent ready",
		zap.String("version", config.Version),
		zap.String("agent_id", agentID),
		zap.String("hostname", hostname),
		zap.Int("port", a.cfg.ListenPort),
		zap.Duration("sample_interval", a.cfg.SampleInterval),
		zap.Int("batch_size", a.cfg.BatchSize),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Run()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down agent")
		return a.shutdown()
	case err := <-errCh:
		a.publisher.Stop()
		return fmt.Errorf("http server: %w", err)
	}
}

func (a *Agent) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", zap.Error(err))
	}

	// Stop flushes the partial batch so collected samples are not lost.
	a.publisher.Stop()

	a.logger.Info("agent stopped")
	return nil
}
