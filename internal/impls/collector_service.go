package impls

import (
	"context"

	"github.com/hostpulse/agent/internal/domain"
)

// CollectorService describes interaction with the remote collector API.
type CollectorService interface {
	Ping(ctx context.Context) error
	SendReport(ctx context.Context, report domain.UsageReport) error
}
