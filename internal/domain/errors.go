package domain

import "fmt"

// ErrStatsUnavailable reports a failed host CPU statistics query. The caller
// is expected to skip the sampling cycle rather than retry.
type ErrStatsUnavailable struct {
	Source string
	Err    error
}

func (e ErrStatsUnavailable) Error() string {
	return fmt.Sprintf("cpu statistics unavailable (%s): %v", e.Source, e.Err)
}

func (e ErrStatsUnavailable) Unwrap() error {
	return e.Err
}

type ErrSchedulerClosed struct{}

func (e ErrSchedulerClosed) Error() string {
	return "batch scheduler is closed"
}
