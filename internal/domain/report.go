package domain

// UsageReport is the payload shipped to the collector. Samples keep their
// submission order; reports themselves may arrive out of order because
// batches are sent concurrently.
type UsageReport struct {
	AgentID  string        `json:"agent_id"`
	ReportID string        `json:"report_id"`
	Hostname string        `json:"hostname"`
	Samples  []UsageSample `json:"samples"`
}
