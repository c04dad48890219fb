package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/domain"
	"github.com/hostpulse/agent/internal/usecase/monitor"
)

type countingSampler struct {
	mu    sync.Mutex
	ticks domain.TickCounts
	fail  bool
}

func (s *countingSampler) Sample() (domain.TickCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return domain.TickCounts{}, domain.ErrStatsUnavailable{Source: "test", Err: errors.New("down")}
	}
	s.ticks.User += 10
	s.ticks.Idle += 10
	return s.ticks, nil
}

type fakeAPI struct {
	mu      sync.Mutex
	reports []domain.UsageReport
	got     chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{got: make(chan struct{}, 16)}
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

func (f *fakeAPI) SendReport(_ context.Context, report domain.UsageReport) error {
	f.mu.Lock()
	f.reports = append(f.reports, report)
	f.mu.Unlock()
	select {
	case f.got <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeAPI) all() []domain.UsageReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.UsageReport(nil), f.reports...)
}

type fakeStore struct {
	mu      sync.Mutex
	samples []domain.UsageSample
}

func (f *fakeStore) AgentID(context.Context) (string, error) { return "agent-1", nil }

func (f *fakeStore) AppendSamples(samples []domain.UsageSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, samples...)
	return nil
}

func (f *fakeStore) LoadSamples(time.Time) ([]domain.UsageSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.UsageSample(nil), f.samples...), nil
}

func newPublisher(t *testing.T, cfg Config, sampler *countingSampler, api *fakeAPI, store *fakeStore) *Publisher {
	t.Helper()
	if cfg.AgentID == "" {
		cfg.AgentID = "agent-1"
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "testhost"
	}
	mon := monitor.New(sampler, 64)
	return New(context.Background(), cfg, mon, api, store, zap.NewNop())
}

func TestPublisherShipsFullBatches(t *testing.T) {
	api := newFakeAPI()
	store := &fakeStore{}
	p := newPublisher(t, Config{
		SampleInterval: 2 * time.Millisecond,
		FlushInterval:  time.Hour,
		BatchSize:      2,
		Workers:        1,
	}, &countingSampler{}, api, store)

	p.Start()
	select {
	case <-api.got:
	case <-time.After(5 * time.Second):
		t.Fatal("no report shipped")
	}
	p.Stop()

	reports := api.all()
	require.NotEmpty(t, reports)
	first := reports[0]
	assert.Equal(t, "agent-1", first.AgentID)
	assert.Equal(t, "testhost", first.Hostname)
	assert.NotEmpty(t, first.ReportID)
	assert.Len(t, first.Samples, 2)

	persisted, err := store.LoadSamples(time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, persisted)
}

func TestPublisherStopFlushesPartialBatch(t *testing.T) {
	api := newFakeAPI()
	p := newPublisher(t, Config{
		SampleInterval: 2 * time.Millisecond,
		FlushInterval:  time.Hour,
		BatchSize:      1000,
		Workers:        1,
	}, &countingSampler{}, api, &fakeStore{})

	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	reports := api.all()
	require.NotEmpty(t, reports)
	assert.NotEmpty(t, reports[0].Samples)
}

func TestPublisherFlushTriggerShipsSlowBatches(t *testing.T) {
	api := newFakeAPI()
	p := newPublisher(t, Config{
		SampleInterval: 2 * time.Millisecond,
		FlushInterval:  10 * time.Millisecond,
		BatchSize:      10000,
		Workers:        1,
	}, &countingSampler{}, api, &fakeStore{})

	p.Start()
	select {
	case <-api.got:
	case <-time.After(5 * time.Second):
		t.Fatal("flush trigger never shipped a partial batch")
	}
	p.Stop()
}

func TestPublisherSkipsFailedSampleCycles(t *testing.T) {
	api := newFakeAPI()
	store := &fakeStore{}
	sampler := &countingSampler{fail: true}
	p := newPublisher(t, Config{
		SampleInterval: 2 * time.Millisecond,
		FlushInterval:  5 * time.Millisecond,
		BatchSize:      1,
		Workers:        1,
	}, sampler, api, store)

	p.Start()
	time.Sleep(25 * time.Millisecond)
	p.Stop()

	assert.Empty(t, api.all())
	persisted, err := store.LoadSamples(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestPublisherSubscribeReceivesLiveSamples(t *testing.T) {
	api := newFakeAPI()
	p := newPublisher(t, Config{
		SampleInterval: 2 * time.Millisecond,
		FlushInterval:  time.Hour,
		BatchSize:      10,
		Workers:        1,
	}, &countingSampler{}, api, &fakeStore{})

	ch, cancel := p.Subscribe()
	defer cancel()

	p.Start()
	defer p.Stop()

	select {
	case sample := <-ch:
		assert.False(t, sample.Timestamp.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no live sample received")
	}
}

func TestPublisherWireRounding(t *testing.T) {
	s := domain.UsageSample{Percent: 33.333333}
	assert.InDelta(t, 33.33, roundForWire(s).Percent, 1e-9)
}
