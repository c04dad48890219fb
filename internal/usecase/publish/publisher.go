// Package publish runs the periodic sampling pipeline: collect, persist,
// batch, and ship usage samples to the collector.
package publish

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/batch"
	"github.com/hostpulse/agent/internal/domain"
	"github.com/hostpulse/agent/internal/impls"
	"github.com/hostpulse/agent/internal/sched"
	"github.com/hostpulse/agent/internal/usecase/monitor"
)

// failureLogEvery rate-limits shipping failure warnings; the collector being
// down should not flood the log at sampling frequency.
const failureLogEvery = 10

// Config controls the publishing pipeline.
type Config struct {
	AgentID  string
	Hostname string

	// SampleInterval is the wall-clock period between CPU samples.
	SampleInterval time.Duration
	// FlushInterval bounds how long a partial batch may wait before
	// being shipped anyway.
	FlushInterval time.Duration
	// BatchSize is the number of samples per shipped report.
	BatchSize int
	// Workers bounds concurrent report shipments.
	Workers int
}

// Publisher drives the monitor on a periodic trigger, persists each sample,
// and ships batched reports through the collector service.
type Publisher struct {
	cfg     Config
	monitor *monitor.Monitor
	api     impls.CollectorService
	store   impls.AgentStore
	logger  *zap.Logger

	scheduler *batch.Scheduler[domain.UsageSample, domain.UsageSample]

	sampleTrigger *sched.Trigger
	flushTrigger  *sched.Trigger
	drained       chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan domain.UsageSample
	nextSub int
}

// New wires a publisher. The context bounds in-flight report shipments.
func New(ctx context.Context, cfg Config, mon *monitor.Monitor, api impls.CollectorService, store impls.AgentStore, logger *zap.Logger) *Publisher {
	p := &Publisher{
		cfg:     cfg,
		monitor: mon,
		api:     api,
		store:   store,
		logger:  logger,
		subs:    make(map[int]chan domain.UsageSample),
		drained: make(chan struct{}),
	}
	p.scheduler = batch.New(ctx,
		batch.Config{Size: cfg.BatchSize, Workers: cfg.Workers},
		roundForWire, p.ship)
	return p
}

// roundForWire is the per-sample wire transform: percentages are rounded to
// two decimals before leaving the host.
func roundForWire(s domain.UsageSample) domain.UsageSample {
	s.Percent = math.Round(s.Percent*100) / 100
	return s
}

// Start launches the sampling and flush triggers. Call Stop to shut the
// pipeline down.
func (p *Publisher) Start() {
	go p.drainResults()
	p.sampleTrigger = sched.Every(p.cfg.SampleInterval, p.tick)
	p.flushTrigger = sched.Every(p.cfg.FlushInterval, func(context.Context) {
		p.scheduler.Flush()
	})
}

// Stop cancels both triggers, flushes the remaining partial batch, and waits
// for in-flight shipments to settle.
func (p *Publisher) Stop() {
	p.sampleTrigger.Stop()
	p.flushTrigger.Stop()
	if err := p.scheduler.Close(); err != nil {
		p.logger.Warn("batch scheduler close", zap.Error(err))
	}
	<-p.drained

	p.subMu.Lock()
	defer p.subMu.Unlock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

// Subscribe registers a live sample listener. Slow listeners miss samples
// rather than stalling the pipeline. The returned func cancels the
// subscription.
func (p *Publisher) Subscribe() (<-chan domain.UsageSample, func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan domain.UsageSample, 16)
	p.subs[id] = ch

	cancel := func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		if c, ok := p.subs[id]; ok {
			close(c)
			delete(p.subs, id)
		}
	}
	return ch, cancel
}

func (p *Publisher) tick(ctx context.Context) {
	sample, err := p.monitor.Collect()
	if err != nil {
		// Skip the cycle; the next tick samples again.
		p.logger.Warn("cpu sample failed, skipping cycle", zap.Error(err))
		return
	}

	if err := p.store.AppendSamples([]domain.UsageSample{sample}); err != nil {
		p.logger.Warn("persist sample", zap.Error(err))
	}

	if err := p.scheduler.Submit(sample); err != nil {
		p.logger.Warn("submit sample", zap.Error(err))
		return
	}

	p.broadcast(sample)
}

func (p *Publisher) ship(ctx context.Context, samples []domain.UsageSample) error {
	report := domain.UsageReport{
		AgentID:  p.cfg.AgentID,
		ReportID: uuid.NewString(),
		Hostname: p.cfg.Hostname,
		Samples:  samples,
	}
	return p.api.SendReport(ctx, report)
}

func (p *Publisher) drainResults() {
	defer close(p.drained)

	failures := 0
	for r := range p.scheduler.Results() {
		if r.Err != nil {
			if failures%failureLogEvery == 0 {
				p.logger.Warn("failed to ship usage report",
					zap.Int("batch_seq", r.Seq),
					zap.Int("samples", len(r.Items)),
					zap.Error(r.Err),
				)
			}
			failures++
			continue
		}
		p.logger.Debug("shipped usage report",
			zap.Int("batch_seq", r.Seq),
			zap.Int("samples", len(r.Items)),
		)
	}
}

func (p *Publisher) broadcast(sample domain.UsageSample) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- sample:
		default:
		}
	}
}
