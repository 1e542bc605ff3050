package monitoring

import "time"

// Monitor reports failures to an external error tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover reports a panic in progress and re-panics. Call it deferred.
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}
