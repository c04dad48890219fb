package impls

import (
	"context"
	"time"

	"github.com/hostpulse/agent/internal/domain"
)

// AgentStore persists the agent identity and the sample history.
type AgentStore interface {
	AgentID(ctx context.Context) (string, error)
	AppendSamples(samples []domain.UsageSample) error
	LoadSamples(since time.Time) ([]domain.UsageSample, error)
}
