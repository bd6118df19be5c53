package repository

import "time"

// MetricsRecorder receives operational measurements. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	CacheLookup(entity string, hit bool)
	FetchCompleted(operation string, d time.Duration, err error)
	ComparisonCompleted(kind string, d time.Duration, err error)
	SessionsActive(n int)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) CacheLookup(string, bool)                         {}
func (NopMetrics) FetchCompleted(string, time.Duration, error)      {}
func (NopMetrics) ComparisonCompleted(string, time.Duration, error) {}
func (NopMetrics) SessionsActive(int)                               {}
